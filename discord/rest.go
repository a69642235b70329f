package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/kbukum/scribe/logger"
)

// RestClient is a typed client for the platform's REST API.
type RestClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *logger.Logger
}

// NewRestClient creates a REST client authenticated with the bot token.
func NewRestClient(baseURL, token string, log *logger.Logger) *RestClient {
	return &RestClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		token:      token,
		log:        log.WithComponent("discord-rest"),
	}
}

// CreateMessage posts a message to a channel. Files, when present, are
// uploaded via multipart with the JSON payload in the payload_json part.
func (c *RestClient) CreateMessage(ctx context.Context, channelID string, payload MessagePayload) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	return c.doMessage(ctx, http.MethodPost, path, payload)
}

// EditMessage edits an existing message in place.
func (c *RestClient) EditMessage(ctx context.Context, channelID, messageID string, payload MessagePayload) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.doMessage(ctx, http.MethodPatch, path, payload)
}

// CreateInteractionResponse sends the immediate answer to an interaction.
func (c *RestClient) CreateInteractionResponse(ctx context.Context, interactionID, token string, resp InteractionResponse) error {
	path := fmt.Sprintf("/interactions/%s/%s/callback", interactionID, token)
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("discord: encode interaction response: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body))
	return err
}

// EditOriginalResponse edits the original response to an interaction.
func (c *RestClient) EditOriginalResponse(ctx context.Context, applicationID, token string, payload MessagePayload) (*Message, error) {
	path := fmt.Sprintf("/webhooks/%s/%s/messages/@original", applicationID, token)
	return c.doMessage(ctx, http.MethodPatch, path, payload)
}

// CurrentApplication fetches the application the token belongs to.
func (c *RestClient) CurrentApplication(ctx context.Context) (*Application, error) {
	raw, err := c.do(ctx, http.MethodGet, "/applications/@me", "", nil)
	if err != nil {
		return nil, err
	}
	app := &Application{}
	if err := json.Unmarshal(raw, app); err != nil {
		return nil, fmt.Errorf("discord: decode application: %w", err)
	}
	return app, nil
}

// BulkOverwriteCommands replaces all global application commands.
func (c *RestClient) BulkOverwriteCommands(ctx context.Context, applicationID string, cmds []ApplicationCommand) error {
	path := fmt.Sprintf("/applications/%s/commands", applicationID)
	body, err := json.Marshal(cmds)
	if err != nil {
		return fmt.Errorf("discord: encode commands: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, path, "application/json", bytes.NewReader(body))
	return err
}

// doMessage executes a message create/edit and decodes the returned message.
func (c *RestClient) doMessage(ctx context.Context, method, path string, payload MessagePayload) (*Message, error) {
	var (
		contentType string
		body        io.Reader
		err         error
	)
	if len(payload.Files) > 0 {
		contentType, body, err = encodeMultipart(payload)
	} else {
		contentType = "application/json"
		var raw []byte
		raw, err = json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("discord: encode payload: %w", err)
	}

	raw, err := c.do(ctx, method, path, contentType, body)
	if err != nil {
		return nil, err
	}

	msg := &Message{}
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("discord: decode message: %w", err)
	}
	return msg, nil
}

// do executes a request and maps non-2xx responses to *APIError.
func (c *RestClient) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discord: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("discord: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil {
			apiErr.Message = string(raw)
		}
		return nil, apiErr
	}
	return raw, nil
}

// encodeMultipart builds a payload_json + files[n] multipart body.
func encodeMultipart(payload MessagePayload) (string, io.Reader, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	meta, err := json.Marshal(payload)
	if err != nil {
		return "", nil, err
	}
	if err := w.WriteField("payload_json", string(meta)); err != nil {
		return "", nil, err
	}

	for i, f := range payload.Files {
		part, err := w.CreateFormFile(fmt.Sprintf("files[%d]", i), f.Name)
		if err != nil {
			return "", nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return "", nil, err
		}
	}

	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), buf, nil
}
