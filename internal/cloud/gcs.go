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

package cloud

import (
	"fmt"
	"strings"
)

const gcsScheme = "gs://"

// GCSPubSubNotification is the JSON payload of a Cloud Storage object
// notification delivered through Pub/Sub.
type GCSPubSubNotification struct {
	Kind        string                 `json:"kind"`
	ID          string                 `json:"id"`
	SelfLink    string                 `json:"selfLink"`
	Name        string                 `json:"name"`
	Bucket      string                 `json:"bucket"`
	Generation  string                 `json:"generation"`
	ContentType string                 `json:"contentType"`
	TimeCreated string                 `json:"timeCreated"`
	Updated     string                 `json:"updated"`
	Size        string                 `json:"size"`
	MD5Hash     string                 `json:"md5Hash"`
	MediaLink   string                 `json:"mediaLink"`
	MetaData    map[string]interface{} `json:"metadata"`
	Crc32c      string                 `json:"crc32c"`
	ETag        string                 `json:"etag"`
}

// GCSObject identifies one object in Cloud Storage.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// URI returns the object as a gs:// URI.
func (o GCSObject) URI() string {
	return gcsScheme + o.Bucket + "/" + o.Name
}

// ParseGCSURI splits a gs://bucket/object URI.
func ParseGCSURI(uri string) (GCSObject, error) {
	rest, ok := strings.CutPrefix(uri, gcsScheme)
	if !ok {
		return GCSObject{}, fmt.Errorf("not a cloud storage uri: %q", uri)
	}
	bucket, name, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || name == "" {
		return GCSObject{}, fmt.Errorf("cloud storage uri needs a bucket and an object name: %q", uri)
	}
	return GCSObject{Bucket: bucket, Name: name}, nil
}
