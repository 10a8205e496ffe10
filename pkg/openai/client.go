// Package openai provides a typed client for the assistant, file and vector-store endpoints
// of an OpenAI-compatible API.
package openai

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
	"pai-assistant-go/internal/config"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/pkg/log"
	"strings"
)

// ErrSchema is returned when a response is missing a required field.
var ErrSchema = errors.New("openai: response missing required field")

// ErrNotFound matches an APIError for a resource the API does not know, such as an unknown thread.
var ErrNotFound = errors.New("openai: resource not found")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai api returned %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

// Is reports a 404 as ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the API over HTTP. It is safe for concurrent use.
type Client struct {
	cfg    config.OpenAIConfig
	client *http.Client
}

// NewClient creates a new API client from the config.
func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateConversation creates a thread whose first message is the user's question.
func (c *Client) CreateConversation(ctx context.Context, firstMessage string) (string, error) {
	body := threadRequest{Messages: []messageRequest{{Role: model.RoleUser, Content: firstMessage}}}
	var th thread
	if err := c.do(ctx, http.MethodPost, "/threads", body, &th); err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	if th.ID == "" {
		return "", fmt.Errorf("%w: thread.id", ErrSchema)
	}
	log.Infow("[OpenAIClient] thread created", "threadId", th.ID)
	return th.ID, nil
}

// AppendMessage adds a user message to an existing thread.
func (c *Client) AppendMessage(ctx context.Context, conversationID, content string) error {
	body := messageRequest{Role: model.RoleUser, Content: content}
	var msg wireMessage
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(conversationID)+"/messages", body, &msg); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// SubmitRun starts a run of the assistant against the thread.
func (c *Client) SubmitRun(ctx context.Context, conversationID, assistantID string) (model.RunHandle, error) {
	var r run
	path := "/threads/" + url.PathEscape(conversationID) + "/runs"
	if err := c.do(ctx, http.MethodPost, path, runRequest{AssistantID: assistantID}, &r); err != nil {
		return model.RunHandle{}, fmt.Errorf("failed to create run: %w", err)
	}
	if r.ID == "" {
		return model.RunHandle{}, fmt.Errorf("%w: run.id", ErrSchema)
	}
	return model.RunHandle{ConversationID: conversationID, RunID: r.ID}, nil
}

// PollRun fetches the current status of a run.
func (c *Client) PollRun(ctx context.Context, h model.RunHandle) (model.RunStatus, error) {
	var r run
	path := "/threads/" + url.PathEscape(h.ConversationID) + "/runs/" + url.PathEscape(h.RunID)
	if err := c.do(ctx, http.MethodGet, path, nil, &r); err != nil {
		return "", fmt.Errorf("failed to retrieve run: %w", err)
	}
	if r.Status == "" {
		return "", fmt.Errorf("%w: run.status", ErrSchema)
	}
	if r.LastError != nil {
		log.Warnw("[OpenAIClient] run reported error", "runId", h.RunID, "status", r.Status,
			"code", r.LastError.Code, "message", r.LastError.Message)
	}
	return model.RunStatus(r.Status), nil
}

// ListMessages returns the most recent page of thread messages, newest last.
// The API is asked for descending order explicitly rather than relying on its default.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	q := url.Values{}
	q.Set("order", "desc")
	q.Set("limit", "20")
	path := "/threads/" + url.PathEscape(conversationID) + "/messages?" + q.Encode()

	var list messageList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if list.Data == nil {
		return nil, fmt.Errorf("%w: list.data", ErrSchema)
	}

	out := make([]model.Message, len(list.Data))
	for i, wm := range list.Data {
		m, err := wm.toModel()
		if err != nil {
			return nil, err
		}
		// desc -> newest last
		out[len(list.Data)-1-i] = m
	}
	return out, nil
}

// UploadFile uploads content as an assistants file and returns its id.
func (c *Client) UploadFile(ctx context.Context, name string, content []byte) (string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/files", buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var f file
	if err := c.send(req, &f); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	if f.ID == "" {
		return "", fmt.Errorf("%w: file.id", ErrSchema)
	}
	log.Infow("[OpenAIClient] file uploaded", "fileId", f.ID, "name", name, "bytes", len(content))
	return f.ID, nil
}

// CreateIndexBatch attaches files to a vector store.
func (c *Client) CreateIndexBatch(ctx context.Context, vectorStoreID string, fileIDs []string) (model.BatchHandle, error) {
	var b fileBatch
	path := "/vector_stores/" + url.PathEscape(vectorStoreID) + "/file_batches"
	if err := c.do(ctx, http.MethodPost, path, fileBatchRequest{FileIDs: fileIDs}, &b); err != nil {
		return model.BatchHandle{}, fmt.Errorf("failed to create file batch: %w", err)
	}
	if b.ID == "" {
		return model.BatchHandle{}, fmt.Errorf("%w: file_batch.id", ErrSchema)
	}
	return model.BatchHandle{VectorStoreID: vectorStoreID, BatchID: b.ID}, nil
}

// PollBatch fetches the current status of a file batch.
func (c *Client) PollBatch(ctx context.Context, h model.BatchHandle) (model.BatchStatus, error) {
	var b fileBatch
	path := "/vector_stores/" + url.PathEscape(h.VectorStoreID) + "/file_batches/" + url.PathEscape(h.BatchID)
	if err := c.do(ctx, http.MethodGet, path, nil, &b); err != nil {
		return "", fmt.Errorf("failed to retrieve file batch: %w", err)
	}
	if b.Status == "" {
		return "", fmt.Errorf("%w: file_batch.status", ErrSchema)
	}
	return model.BatchStatus(b.Status), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		reqBytes, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(reqBytes)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if c.cfg.ProjectID != "" {
		req.Header.Set("OpenAI-Project", c.cfg.ProjectID)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(bodyBytes))}
		var envelope errorEnvelope
		if json.Unmarshal(bodyBytes, &envelope) == nil && envelope.Error.Message != "" {
			apiErr.Type = envelope.Error.Type
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
