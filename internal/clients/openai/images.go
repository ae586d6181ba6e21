package openai

import (
	"context"
	"errors"
	"strings"
)

type imageGenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
	N      int    `json:"n,omitempty"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateArt calls the images API and returns a self-contained image
// reference: the hosted URL when the API provides one, otherwise the
// base64 payload wrapped as a PNG data URL.
func (c *Client) GenerateArt(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("Image prompt is required.")
	}

	req := imageGenerationRequest{
		Model:  c.imageModel,
		Prompt: prompt,
		Size:   c.imageSize,
		N:      1,
	}

	var resp imageGenerationResponse
	if err := c.do(ctx, "POST", "/v1/images/generations", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", errors.New("OpenAI returned no image data.")
	}
	if resp.Data[0].URL != "" {
		return resp.Data[0].URL, nil
	}
	if resp.Data[0].B64JSON != "" {
		return "data:image/png;base64," + resp.Data[0].B64JSON, nil
	}
	return "", errors.New("OpenAI returned an empty image payload.")
}
