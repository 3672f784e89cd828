package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"document-portal-gateway/models"
)

// PortalClient talks to the upstream document portal REST API. Paths and
// bodies follow the upstream wire contract exactly, trailing slashes
// included. The client holds no token itself; every call takes the bearer
// token of the session on whose behalf it acts.
type PortalClient struct {
	baseURL string
	client  *http.Client

	// onUnauthorized fires whenever the upstream answers 401, with the
	// rejected token. The session gate hooks in here to enforce the global
	// logout-on-401 policy.
	onUnauthorized func(token string)
}

func NewPortalClient(baseURL string, client *http.Client) *PortalClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &PortalClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// SetUnauthorizedHook registers the 401 side effect. Must be called before
// the client is shared across goroutines.
func (c *PortalClient) SetUnauthorizedHook(hook func(token string)) {
	c.onUnauthorized = hook
}

// LoginResponse is the upstream answer to POST /auth/login/.
type LoginResponse struct {
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh,omitempty"`
	} `json:"tokens"`
	User models.PortalUser `json:"user"`
}

// UserPayload is the body for user create/update calls. Empty password and
// role are omitted so partial updates keep the current values.
type UserPayload struct {
	Username     string `json:"username"`
	Password     string `json:"password,omitempty"`
	Email        string `json:"email,omitempty"`
	ShopName     string `json:"shop_name,omitempty"`
	StaffName    string `json:"staff_name,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty"`
	Role         string `json:"role,omitempty"`
}

// FileUpdate is the body for PATCH /files/{id}/. Amount is sent only for
// cheques; the other fields are always written, matching the edit form.
type FileUpdate struct {
	Heading      string `json:"heading"`
	Description  string `json:"description"`
	UploadedAt   string `json:"uploaded_at"`
	DocumentType string `json:"document_type"`
	Amount       string `json:"amount,omitempty"`
}

// UploadMetadata is the shared metadata applied to each file of a batch.
type UploadMetadata struct {
	Heading      string
	Description  string
	UploadedAt   string
	DocumentType string
	Amount       string
}

func (c *PortalClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.do(ctx, "", http.MethodPost, "/auth/login/", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *PortalClient) Register(ctx context.Context, payload UserPayload) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, "", http.MethodPost, "/auth/register/", nil, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *PortalClient) CurrentUser(ctx context.Context, token string) (*models.PortalUser, error) {
	var user models.PortalUser
	if err := c.do(ctx, token, http.MethodGet, "/auth/me/", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *PortalClient) ListUsers(ctx context.Context, token string) ([]models.PortalUser, error) {
	var users []models.PortalUser
	if err := c.do(ctx, token, http.MethodGet, "/users/", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListRegularUsers returns all non-admin accounts.
func (c *PortalClient) ListRegularUsers(ctx context.Context, token string) ([]models.PortalUser, error) {
	var users []models.PortalUser
	if err := c.do(ctx, token, http.MethodGet, "/users/regular_users/", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *PortalClient) CreateUser(ctx context.Context, token string, payload UserPayload) (*models.PortalUser, error) {
	var user models.PortalUser
	if err := c.do(ctx, token, http.MethodPost, "/users/", nil, payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *PortalClient) UpdateUser(ctx context.Context, token string, id int, payload UserPayload) (*models.PortalUser, error) {
	var user models.PortalUser
	path := fmt.Sprintf("/users/%d/", id)
	if err := c.do(ctx, token, http.MethodPatch, path, nil, payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *PortalClient) DeleteUser(ctx context.Context, token string, id int) error {
	return c.do(ctx, token, http.MethodDelete, fmt.Sprintf("/users/%d/", id), nil, nil, nil)
}

// ListFiles fetches files visible to the token, optionally constrained by an
// upstream query such as {"date": "2024-01-05"}.
func (c *PortalClient) ListFiles(ctx context.Context, token string, query url.Values) ([]models.FileRecord, error) {
	var files []models.FileRecord
	if err := c.do(ctx, token, http.MethodGet, "/files/", query, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// MyFiles fetches the caller's own uploads.
func (c *PortalClient) MyFiles(ctx context.Context, token string) ([]models.FileRecord, error) {
	var files []models.FileRecord
	if err := c.do(ctx, token, http.MethodGet, "/files/my_files/", nil, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// UploadFile sends one file as multipart form data. The metadata fields ride
// alongside the file part; amount is included only when set. The body is
// streamed through a pipe, so a large file never sits in memory whole.
func (c *PortalClient) UploadFile(ctx context.Context, token, filename string, content io.Reader, meta UploadMetadata) (*models.FileRecord, error) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	formErr := make(chan error, 1)
	go func() {
		err := writeUploadForm(w, filename, content, meta)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
		formErr <- err
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/", pr)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		// Do closes the request body on every path, so the writer goroutine
		// has finished. A form-side failure is the real cause; report it
		// instead of the transport's view of the broken pipe.
		if ferr := <-formErr; ferr != nil && !errors.Is(ferr, io.ErrClosedPipe) {
			return nil, fmt.Errorf("read upload content: %w", ferr)
		}
		return nil, &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	var file models.FileRecord
	if err := c.handleResponse(resp, token, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func writeUploadForm(w *multipart.Writer, filename string, content io.Reader, meta UploadMetadata) error {
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}

	fields := map[string]string{
		"heading":       meta.Heading,
		"description":   meta.Description,
		"uploaded_at":   meta.UploadedAt,
		"document_type": meta.DocumentType,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return err
		}
	}
	if meta.Amount != "" {
		if err := w.WriteField("amount", meta.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (c *PortalClient) UpdateFile(ctx context.Context, token string, id int, patch FileUpdate) (*models.FileRecord, error) {
	var file models.FileRecord
	path := fmt.Sprintf("/files/%d/", id)
	if err := c.do(ctx, token, http.MethodPatch, path, nil, patch, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (c *PortalClient) DeleteFile(ctx context.Context, token string, id int) error {
	return c.do(ctx, token, http.MethodDelete, fmt.Sprintf("/files/%d/", id), nil, nil, nil)
}

func (c *PortalClient) UpdateFileStatus(ctx context.Context, token string, id int, status string) (*models.FileRecord, error) {
	var file models.FileRecord
	path := fmt.Sprintf("/files/%d/update_status/", id)
	body := map[string]string{"status": status}
	if err := c.do(ctx, token, http.MethodPatch, path, nil, body, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// FileStats proxies GET /files/stats/ untouched; the gateway does not
// reinterpret the upstream's aggregate shape.
func (c *PortalClient) FileStats(ctx context.Context, token string) (map[string]interface{}, error) {
	var stats map[string]interface{}
	if err := c.do(ctx, token, http.MethodGet, "/files/stats/", nil, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// do performs one JSON round trip against the upstream.
func (c *PortalClient) do(ctx context.Context, token, method, path string, query url.Values, body, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, token, out)
}

// handleResponse translates the upstream answer: 401 fires the unauthorized
// hook, 4xx keeps the upstream message, 5xx and non-JSON bodies collapse to a
// generic server error.
func (c *PortalClient) handleResponse(resp *http.Response, token string, out interface{}) error {
	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil && token != "" {
			c.onUnauthorized(token)
		}
		return ErrUnauthorized
	}

	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fmt.Sprintf("Server error (%d)", resp.StatusCode)
		if isJSON {
			var errBody struct {
				Detail  string `json:"detail"`
				Message string `json:"message"`
				Error   string `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
				switch {
				case errBody.Detail != "":
					message = errBody.Detail
				case errBody.Message != "":
					message = errBody.Message
				case errBody.Error != "":
					message = errBody.Error
				}
			}
		} else {
			// HTML error pages from a misconfigured upstream are never shown
			// to callers verbatim.
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if !isJSON {
		return &APIError{StatusCode: resp.StatusCode, Message: "Server returned non-JSON response"}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "Server returned malformed response"}
	}
	return nil
}
