package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"document-portal-gateway/middleware"
	"document-portal-gateway/models"
	"document-portal-gateway/services"
	"document-portal-gateway/utils"
)

// ListUsers returns every portal account. Admin only.
func ListUsers(c *gin.Context) {
	users, err := client.ListUsers(c.Request.Context(), middleware.TokenFrom(c))
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ListRegularUsers returns only non-admin accounts, the rows of the
// user-management table on the admin dashboard.
func ListRegularUsers(c *gin.Context) {
	users, err := client.ListRegularUsers(c.Request.Context(), middleware.TokenFrom(c))
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type UserRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password"`
	Email        string `json:"email"`
	ShopName     string `json:"shop_name"`
	StaffName    string `json:"staff_name"`
	MobileNumber string `json:"mobile_number"`
	Role         string `json:"role"`
}

func (r *UserRequest) payload() services.UserPayload {
	return services.UserPayload{
		Username:     utils.SanitizeInput(r.Username),
		Password:     r.Password,
		Email:        utils.SanitizeInput(r.Email),
		ShopName:     utils.SanitizeInput(r.ShopName),
		StaffName:    utils.SanitizeInput(r.StaffName),
		MobileNumber: utils.SanitizeInput(r.MobileNumber),
		Role:         r.Role,
	}
}

// CreateUser creates a portal account, defaulting the role to regular user.
func CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}
	if len(req.Password) < 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 4 characters"})
		return
	}
	if req.Email != "" && !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	user, err := client.CreateUser(c.Request.Context(), middleware.TokenFrom(c), req.payload())
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "message": "User created successfully"})
}

// UpdateUser patches a portal account. An empty password keeps the current
// one; the field is simply not sent upstream.
func UpdateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}
	if req.Password != "" && len(req.Password) < 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 4 characters"})
		return
	}
	if req.Email != "" && !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	user, err := client.UpdateUser(c.Request.Context(), middleware.TokenFrom(c), id, req.payload())
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "message": "User updated successfully"})
}

// DeleteUser removes a portal account.
func DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	if err := client.DeleteUser(c.Request.Context(), middleware.TokenFrom(c), id); err != nil {
		respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
