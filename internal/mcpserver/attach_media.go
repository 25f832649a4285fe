package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/puchi-app/puchi/internal/models"
)

const maxMediaBytes = 25 << 20 // 25 MB

// mimeToType maps content types to the journal media categories.
var mimeToType = map[string]models.MediaType{
	"image/png":       models.MediaPhoto,
	"image/jpeg":      models.MediaPhoto,
	"image/gif":       models.MediaPhoto,
	"image/webp":      models.MediaPhoto,
	"audio/mpeg":      models.MediaVoice,
	"audio/mp4":       models.MediaVoice,
	"audio/x-m4a":     models.MediaVoice,
	"audio/wav":       models.MediaVoice,
	"video/mp4":       models.MediaVideo,
	"video/quicktime": models.MediaVideo,
	"video/webm":      models.MediaVideo,
}

func (s *Server) registerAttachMedia() {
	s.mcp.AddTool(mcp.NewTool("attach_media",
		mcp.WithDescription("Attach a photo, voice note or video to an existing entry. "+
			"Accepts an http(s) URL or a base64 data URI. Small files are stored inline "+
			"with the entry; large ones are written to the media directory."),
		mcp.WithString("entry_id", mcp.Required(), mcp.Description("UUID of the entry to attach to")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:<mime>;base64,<data> URI")),
		mcp.WithString("type", mcp.Description("Media type override: photo, voice or video (inferred from MIME when omitted)")),
		mcp.WithString("caption", mcp.Description("Optional caption")),
	), s.attachMedia)
}

type attachResult struct {
	MediaID string `json:"mediaId"`
	EntryID string `json:"entryId"`
	Type    string `json:"type"`
	Size    int    `json:"size"`
	Stored  string `json:"stored"` // "inline" or "file"
}

func (s *Server) attachMedia(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawID, err := req.RequireString("entry_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entryID, err := uuid.Parse(rawID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid entry id: %s", rawID)), nil
	}
	entry, err := s.repo.Entry(entryID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("entry not found: %s", rawID)), nil
	}

	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var data []byte
	var detected models.MediaType
	if strings.HasPrefix(rawURL, "data:") {
		data, detected, err = decodeDataURI(rawURL)
	} else {
		data, detected, err = fetchHTTP(rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > maxMediaBytes {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), maxMediaBytes)), nil
	}

	mt := detected
	if v, tErr := req.RequireString("type"); tErr == nil && v != "" {
		mt = models.MediaType(v)
	}
	if mt == "" {
		// Last resort: sniff the bytes.
		mt = mimeToType[strings.Split(http.DetectContentType(data), ";")[0]]
	}
	if mt == "" {
		return mcp.NewToolResultError("could not determine media type; pass type=photo|voice|video"), nil
	}

	caption := ""
	if v, cErr := req.RequireString("caption"); cErr == nil {
		caption = v
	}

	item, err := s.repo.StoreMedia(data, mt, caption)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry.MediaItems = append(entry.MediaItems, item)
	if _, err := s.repo.UpdateEntry(entry); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stored := "inline"
	if item.Blob.IsFile() {
		stored = "file"
	}
	out, _ := json.Marshal(attachResult{
		MediaID: item.ID.String(),
		EntryID: entryID.String(),
		Type:    string(item.Type),
		Size:    len(data),
		Stored:  stored,
	})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses a data:[<mediatype>][;base64],<data> URI.
func decodeDataURI(uri string) ([]byte, models.MediaType, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	return data, mimeToType[mime], nil
}

// fetchHTTP downloads a file from an HTTP/HTTPS URL with security checks.
func fetchHTTP(rawURL string) ([]byte, models.MediaType, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}

	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, "", err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	resp, err := client.Get(rawURL) //nolint:noctx
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxMediaBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, "", fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, "", fmt.Errorf("file too large: exceeds %d bytes", maxMediaBytes)
	}

	ct := resp.Header.Get("Content-Type")
	return data, mimeToType[strings.Split(ct, ";")[0]], nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	// AWS/GCP/Azure metadata endpoint.
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}
