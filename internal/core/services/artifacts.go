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

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
)

const signedURLHost = "storage.googleapis.com"

// GCSArtifactStore keeps artifacts in one bucket under a name prefix. With
// signing enabled Upload returns a V4 signed https URL, signed through the
// IAM credentials API as SignerEmail, so the completion service can fetch
// the evidence without bucket access.
type GCSArtifactStore struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient // Required when SignURLs is set.
	Bucket        string
	Prefix        string
	SignURLs      bool
	SignerEmail   string
	Expires       time.Duration
}

func NewGCSArtifactStore(config *cloud.Config, clients *cloud.ServiceClients) *GCSArtifactStore {
	return &GCSArtifactStore{
		StorageClient: clients.StorageClient,
		IAMClient:     clients.IAMClient,
		Bucket:        config.Storage.ArtifactBucket,
		Prefix:        config.Storage.ArtifactPrefix,
		SignURLs:      config.Storage.SignedURLs,
		SignerEmail:   config.Application.SignerServiceAccountEmail,
		Expires:       time.Duration(config.Storage.SignedURLMinutes) * time.Minute,
	}
}

func (s *GCSArtifactStore) objectName(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

// Upload copies the local file to the bucket and returns its URL.
func (s *GCSArtifactStore) Upload(ctx context.Context, localPath string, objectName string, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact %s: %w", localPath, err)
	}
	defer f.Close()

	obj := cloud.GCSObject{Bucket: s.Bucket, Name: s.objectName(objectName), MIMEType: contentType}
	w := s.StorageClient.Bucket(obj.Bucket).Object(obj.Name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err = io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write %s: %w", obj.URI(), err)
	}
	if err = w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", obj.URI(), err)
	}

	if !s.SignURLs {
		return obj.URI(), nil
	}
	return s.signedURL(ctx, obj)
}

func (s *GCSArtifactStore) signedURL(ctx context.Context, obj cloud.GCSObject) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(s.Expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			resp, err := s.IAMClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}
	u, err := s.StorageClient.Bucket(obj.Bucket).SignedURL(obj.Name, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", obj.Bucket, obj.Name, err)
	}
	return u, nil
}

// Open streams the object behind a gs:// URI or a signed URL.
func (s *GCSArtifactStore) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	obj, err := ArtifactObject(uri)
	if err != nil {
		return nil, err
	}
	r, err := s.StorageClient.Bucket(obj.Bucket).Object(obj.Name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", obj.URI(), err)
	}
	return r, nil
}

// Delete removes the object; an object that is already gone is not an error.
func (s *GCSArtifactStore) Delete(ctx context.Context, uri string) error {
	obj, err := ArtifactObject(uri)
	if err != nil {
		return err
	}
	err = s.StorageClient.Bucket(obj.Bucket).Object(obj.Name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", obj.URI(), err)
	}
	return nil
}

// ArtifactObject resolves a gs:// URI or a signed storage.googleapis.com
// URL to its bucket and object name.
func ArtifactObject(uri string) (cloud.GCSObject, error) {
	if strings.HasPrefix(uri, "gs://") {
		return cloud.ParseGCSURI(uri)
	}
	u, err := url.Parse(uri)
	if err != nil || u.Host != signedURLHost {
		return cloud.GCSObject{}, fmt.Errorf("not a cloud storage artifact url: %q", uri)
	}
	return cloud.ParseGCSURI("gs:/" + u.Path)
}
