package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guidanceapp/incident-report/log"
	"github.com/guidanceapp/incident-report/model"
)

// Uploader sends locally held images to the media host, one unsigned
// multipart request per image.
type Uploader struct {
	URL    string
	Preset string
	Client *http.Client
}

func New(url, preset string) *Uploader {
	return &Uploader{
		URL:    url,
		Preset: preset,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload attempts every image independently and returns the URLs of
// the ones that made it, in input order. A failed image is dropped and
// the next one still goes out; the call itself never fails. An empty
// input returns immediately with no network activity.
func (u *Uploader) Upload(ctx context.Context, images []model.ImageRef) []string {
	urls := []string{}
	if len(images) == 0 {
		return urls
	}

	results := make([]string, len(images))
	var wg sync.WaitGroup
	for i, img := range images {
		wg.Add(1)
		go func(i int, img model.ImageRef) {
			defer wg.Done()
			url, err := u.uploadOne(ctx, img)
			if err != nil {
				log.Debugf("upload.image: %s", err)
				return
			}
			results[i] = url
		}(i, img)
	}
	wg.Wait()

	for _, url := range results {
		if url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

func (u *Uploader) uploadOne(ctx context.Context, img model.ImageRef) (string, error) {
	name := img.Name
	if name == "" {
		name = uuid.NewString() + ".jpg"
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	_, err = part.Write(img.Data)
	if err != nil {
		return "", err
	}
	err = form.WriteField("upload_preset", u.Preset)
	if err != nil {
		return "", err
	}
	err = form.Close()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("media host returned %s for %s", resp.Status, name)
	}

	var payload struct {
		SecureURL string `json:"secure_url"`
	}
	err = json.NewDecoder(resp.Body).Decode(&payload)
	if err != nil {
		return "", err
	}
	if payload.SecureURL == "" {
		return "", fmt.Errorf("media host response for %s has no secure_url", name)
	}
	return payload.SecureURL, nil
}
