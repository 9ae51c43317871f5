package blobs

import (
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ObjectPath is the URL path prefix under which object URLs are served.
const ObjectPath = "/objects/"

type object struct {
	data        []byte
	contentType string
}

// ObjectURLs hands out transient, revocable URLs for in-memory payloads.
// It never expires entries on its own: whoever creates a URL revokes it.
type ObjectURLs struct {
	origin string

	mu      sync.RWMutex
	objects map[string]object
}

// NewObjectURLs creates a registry whose URLs live under origin, for example
// "http://localhost:3000".
func NewObjectURLs(origin string) *ObjectURLs {
	return &ObjectURLs{
		origin:  strings.TrimRight(origin, "/"),
		objects: make(map[string]object),
	}
}

// Create registers a copy of data and returns its URL.
func (o *ObjectURLs) Create(data []byte, contentType string) string {
	token := uuid.NewString()
	buf := make([]byte, len(data))
	copy(buf, data)

	o.mu.Lock()
	o.objects[token] = object{data: buf, contentType: contentType}
	o.mu.Unlock()
	return o.origin + ObjectPath + token
}

// Resolve returns the payload behind url.
func (o *ObjectURLs) Resolve(url string) ([]byte, string, bool) {
	return o.ResolveToken(tokenOf(url))
}

// ResolveToken is Resolve keyed by the last path segment of the URL.
func (o *ObjectURLs) ResolveToken(token string) ([]byte, string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	obj, ok := o.objects[token]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

// Revoke releases url. Unknown URLs are ignored.
func (o *ObjectURLs) Revoke(url string) {
	o.mu.Lock()
	delete(o.objects, tokenOf(url))
	o.mu.Unlock()
}

// Len reports how many URLs are live.
func (o *ObjectURLs) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.objects)
}

func tokenOf(url string) string {
	if i := strings.Index(url, ObjectPath); i >= 0 {
		return url[i+len(ObjectPath):]
	}
	return path.Base(url)
}
