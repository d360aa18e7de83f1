// Package fakeapi serves the upload HTTP contract from memory so that
// clients can be exercised end to end in tests.
package fakeapi

import (
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jaskaranSM/pdrive/types"
)

// Hooks alter the fake's behaviour. Zero values mean "behave normally".
type Hooks struct {
	// UploadStatus and UploadBody replace the single upload response.
	UploadStatus int
	UploadBody   string
	// InitStatus and InitBody replace the init response.
	InitStatus int
	InitBody   string
	// PartDelay holds a part request before it is answered.
	PartDelay func(partNumber int) time.Duration
	// PartStatus replaces the status of a part response when non-zero.
	PartStatus func(partNumber int) int
	// PartNumber rewrites the part number confirmed to the client.
	PartNumber   func(partNumber int) int
	FinishStatus int
}

type session struct {
	key   string
	parts map[int][]byte
	etags map[int]string
}

type Server struct {
	token string
	hooks Hooks
	app   *fiber.App

	mu          sync.Mutex
	sessions    map[string]*session
	objects     map[string][]byte
	calls       map[string]int
	partOrder   []int
	completions [][]types.Part
}

func New(token string, hooks Hooks) *Server {
	s := &Server{
		token:    token,
		hooks:    hooks,
		sessions: make(map[string]*session),
		objects:  make(map[string][]byte),
		calls:    make(map[string]int),
	}
	s.app = fiber.New(fiber.Config{
		BodyLimit:             256 * 1024 * 1024,
		UnescapePath:          true,
		DisableStartupMessage: true,
	})
	AddRoutes(s.app, s)
	return s
}

// Start listens on a loopback port and returns the base URL.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	go func() {
		_ = s.app.Listener(ln)
	}()
	return "http://" + ln.Addr().String(), nil
}

func (s *Server) Close() error {
	return s.app.Shutdown()
}

func (s *Server) record(route string) {
	s.mu.Lock()
	s.calls[route]++
	s.mu.Unlock()
}

// Calls returns how many requests reached a route: "upload", "init", "put"
// or "finish". Requests rejected for a bad token are counted too.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Object returns a stored object by its location.
func (s *Server) Object(location string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[location]
	return data, ok
}

// PartOrder lists part numbers in the order their responses were sent.
func (s *Server) PartOrder() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.partOrder...)
}

// Completions returns every part list received by the finish endpoint.
func (s *Server) Completions() [][]types.Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]types.Part(nil), s.completions...)
}
