// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file defines the MediaStorageService, which owns every interaction
// with the media bucket in Google Cloud Storage: copying generated songs
// and videos from vendor URLs into the bucket, and producing URLs that
// clients can download from.
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"
)

// MediaStorageService copies generated media into GCS and signs download
// URLs. The IAM client signs on behalf of SignerEmail so no key file is
// needed on the host.
type MediaStorageService struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient
	SignerEmail   string
	Bucket        string
	HTTPClient    *http.Client
}

// NewMediaStorageService creates the service. A nil httpClient gets a
// default with a generous timeout, since vendor downloads can be large.
func NewMediaStorageService(storageClient *storage.Client, iamClient *credentials.IamCredentialsClient, signerEmail string, bucket string, httpClient *http.Client) *MediaStorageService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &MediaStorageService{
		StorageClient: storageClient,
		IAMClient:     iamClient,
		SignerEmail:   signerEmail,
		Bucket:        bucket,
		HTTPClient:    httpClient,
	}
}

// UploadFromURL downloads the object at sourceURL and writes it to the media
// bucket under objectName. The content type is sniffed from the first bytes
// of the payload so the object serves with the right headers regardless of
// what the vendor's CDN reported. Returns the object size in bytes.
func (s *MediaStorageService) UploadFromURL(ctx context.Context, sourceURL string, objectName string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download from %s failed with status %d", sourceURL, resp.StatusCode)
	}

	head := make([]byte, 261)
	n, _ := io.ReadFull(resp.Body, head)
	head = head[:n]

	contentType := resp.Header.Get("Content-Type")
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	w := s.StorageClient.Bucket(s.Bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(head); err != nil {
		_ = w.Close()
		return 0, err
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		_ = w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return w.Attrs().Size, nil
}

// SignedDownloadURL creates a time-limited V4 signed URL for a GET of the
// named object in the media bucket.
func (s *MediaStorageService) SignedDownloadURL(ctx context.Context, objectName string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
	}
	u, err := s.StorageClient.Bucket(s.Bucket).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", s.Bucket, objectName, err)
	}
	return u, nil
}

// PublicURL returns the unauthenticated HTTPS URL for an object. Only valid
// when the bucket grants public read access.
func (s *MediaStorageService) PublicURL(objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.Bucket, strings.TrimPrefix(objectName, "/"))
}

// GCSURI returns the gs:// URI for an object in the media bucket.
func (s *MediaStorageService) GCSURI(objectName string) string {
	return fmt.Sprintf("gs://%s/%s", s.Bucket, strings.TrimPrefix(objectName, "/"))
}
