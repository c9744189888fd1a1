package record

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/guidanceapp/incident-report/model"
)

// Writer is the one-way interface the submission sequence needs: a
// single document write per incident. No read or update path exists.
type Writer interface {
	Insert(ctx context.Context, rec model.IncidentRecord) (id string, err error)
}

// Client writes incident documents to the remote document store over
// its HTTP API. The store assigns the creation timestamp.
type Client struct {
	URL        string
	Collection string
	Client     *http.Client
}

func NewClient(url, collection string) *Client {
	return &Client{
		URL:        strings.TrimRight(url, "/"),
		Collection: collection,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Insert(ctx context.Context, rec model.IncidentRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.URL+"/"+c.Collection, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("record store returned %s", resp.Status)
	}

	var created struct {
		ID string `json:"id"`
	}
	err = json.NewDecoder(resp.Body).Decode(&created)
	if err != nil || created.ID == "" {
		// store accepted the write but echoed no id
		return rec.ID, nil
	}
	return created.ID, nil
}
