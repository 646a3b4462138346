// Package apitest provides an in-memory implementation of the list service
// API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/five82/tracklist/internal/api"
	"github.com/five82/tracklist/internal/model"
)

const prefix = "/api"

// Options tunes the reply shapes of the fake so both server variants can be
// exercised.
type Options struct {
	// CreateReturnsList answers POST with the whole collection.
	CreateReturnsList bool
	// DeleteReturnsList answers single-item DELETE with the remaining
	// collection instead of an empty body.
	DeleteReturnsList bool
	// TaskUpdateReturnsItem answers PUT /tasks/{id} with the record instead of
	// the collection.
	TaskUpdateReturnsItem bool
	// Now stamps purchases. Defaults to time.Now.
	Now func() time.Time
}

// Server is an httptest server speaking the list service API.
type Server struct {
	*httptest.Server

	opts Options

	mu           sync.Mutex
	groceries    []model.GroceryItem
	tasks        []model.Task
	rawGroceries []byte
	rawTasks     []byte
	failures     map[string]int
	replies      map[string][]byte
	requests     []string
	nextID       int
}

// New starts a fake API server. Callers must Close it.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		opts:      opts,
		groceries: []model.GroceryItem{},
		tasks:     []model.Task{},
		failures:  map[string]int{},
		replies:   map[string][]byte{},
	}

	r := mux.NewRouter().UseEncodedPath()
	r.Use(s.intercept)

	r.Methods(http.MethodGet).Path(prefix + "/groceries").HandlerFunc(s.listGroceries)
	r.Methods(http.MethodPost).Path(prefix + "/groceries").HandlerFunc(s.createGrocery)
	r.Methods(http.MethodPut).Path(prefix + "/groceries").HandlerFunc(s.saveGroceries)
	r.Methods(http.MethodDelete).Path(prefix + "/groceries").HandlerFunc(s.resetGroceries)
	r.Methods(http.MethodPut).Path(prefix + "/groceries/{name}").HandlerFunc(s.updateGrocery)
	r.Methods(http.MethodDelete).Path(prefix + "/groceries/{name}").HandlerFunc(s.deleteGrocery)
	r.Methods(http.MethodPost).Path(prefix + "/groceries/{name}/purchase").HandlerFunc(s.recordPurchase)

	r.Methods(http.MethodGet).Path(prefix + "/tasks").HandlerFunc(s.listTasks)
	r.Methods(http.MethodPost).Path(prefix + "/tasks").HandlerFunc(s.createTask)
	r.Methods(http.MethodPut).Path(prefix + "/tasks").HandlerFunc(s.saveTasks)
	r.Methods(http.MethodDelete).Path(prefix + "/tasks").HandlerFunc(s.resetTasks)
	r.Methods(http.MethodPut).Path(prefix + "/tasks/{id}").HandlerFunc(s.updateTask)
	r.Methods(http.MethodDelete).Path(prefix + "/tasks/{id}").HandlerFunc(s.deleteTask)

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL returns the API root to hand to api.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + prefix
}

// Fail makes every request matching method and route template (for example
// "/groceries/{name}/purchase") answer with status.
func (s *Server) Fail(method, route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+prefix+route] = status
}

// Reply makes every request matching method and route template answer 200
// with body verbatim. Stored state is not touched.
func (s *Server) Reply(method, route, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[method+" "+prefix+route] = []byte(body)
}

// ClearFailures removes all injected failures and canned replies.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]int{}
	s.replies = map[string][]byte{}
}

// SeedGroceries replaces the stored groceries.
func (s *Server) SeedGroceries(items []model.GroceryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groceries = cloneGroceries(items)
	s.rawGroceries = nil
}

// SeedTasks replaces the stored tasks.
func (s *Server) SeedTasks(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = cloneTasks(tasks)
	s.rawTasks = nil
}

// SeedRawGroceries makes GET /groceries answer with body verbatim until the
// next bulk save.
func (s *Server) SeedRawGroceries(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawGroceries = []byte(body)
}

// SeedRawTasks makes GET /tasks answer with body verbatim until the next bulk
// save.
func (s *Server) SeedRawTasks(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawTasks = []byte(body)
}

// Groceries returns a copy of the stored groceries.
func (s *Server) Groceries() []model.GroceryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGroceries(s.groceries)
}

// Tasks returns a copy of the stored tasks.
func (s *Server) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Requests returns "METHOD /path" for every request received, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method and route template.
func (s *Server) Count(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r == method+" "+prefix+route {
			n++
		}
	}
	return n
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.EscapedPath()
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		key := r.Method + " " + route

		s.mu.Lock()
		s.requests = append(s.requests, key)
		status, failing := s.failures[key]
		canned, replying := s.replies[key]
		s.mu.Unlock()

		if failing {
			writeError(w, status, "injected failure")
			return
		}
		if replying {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(canned)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listGroceries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rawGroceries != nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(s.rawGroceries)
		return
	}
	writeJSON(w, http.StatusOK, s.groceries)
}

func (s *Server) createGrocery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findGrocery(body.Name) >= 0 {
		writeError(w, http.StatusConflict, "Item already exists")
		return
	}
	item := model.GroceryItem{Name: body.Name, Purchases: []string{}}
	s.groceries = append(s.groceries, item)
	if s.opts.CreateReturnsList {
		writeJSON(w, http.StatusCreated, s.groceries)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) saveGroceries(w http.ResponseWriter, r *http.Request) {
	var items []model.GroceryItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "Expected an array")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groceries = cloneGroceries(items)
	s.rawGroceries = nil
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetGroceries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groceries = []model.GroceryItem{}
	s.rawGroceries = nil
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateGrocery(w http.ResponseWriter, r *http.Request) {
	name, ok := pathVar(w, r, "name")
	if !ok {
		return
	}
	var patch api.GroceryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findGrocery(name)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if patch.Expanded != nil {
		s.groceries[idx].Expanded = *patch.Expanded
	}
	if patch.Purchases != nil {
		s.groceries[idx].Purchases = append([]string{}, *patch.Purchases...)
	}
	writeJSON(w, http.StatusOK, s.groceries[idx])
}

func (s *Server) deleteGrocery(w http.ResponseWriter, r *http.Request) {
	name, ok := pathVar(w, r, "name")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findGrocery(name)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	s.groceries = append(s.groceries[:idx], s.groceries[idx+1:]...)
	if s.opts.DeleteReturnsList {
		writeJSON(w, http.StatusOK, s.groceries)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordPurchase(w http.ResponseWriter, r *http.Request) {
	name, ok := pathVar(w, r, "name")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findGrocery(name)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	s.groceries[idx].Purchases = append(s.groceries[idx].Purchases, model.FormatTimestamp(s.opts.Now()))
	writeJSON(w, http.StatusOK, s.groceries[idx])
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rawTasks != nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(s.rawTasks)
		return
	}
	writeJSON(w, http.StatusOK, s.tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string  `json:"name"`
		DueDate *string `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	task := model.Task{ID: model.TaskID(strconv.Itoa(s.nextID)), Name: body.Name, DueDate: body.DueDate}
	s.tasks = append(s.tasks, task)
	if s.opts.CreateReturnsList {
		writeJSON(w, http.StatusCreated, s.tasks)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) saveTasks(w http.ResponseWriter, r *http.Request) {
	var tasks []model.Task
	if err := json.NewDecoder(r.Body).Decode(&tasks); err != nil {
		writeError(w, http.StatusBadRequest, "Expected an array")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = cloneTasks(tasks)
	s.rawTasks = nil
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = []model.Task{}
	s.rawTasks = nil
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathVar(w, r, "id")
	if !ok {
		return
	}
	var patch api.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findTask(model.TaskID(id))
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if patch.Completed != nil {
		s.tasks[idx].Completed = *patch.Completed
	}
	if s.opts.TaskUpdateReturnsItem {
		writeJSON(w, http.StatusOK, s.tasks[idx])
		return
	}
	writeJSON(w, http.StatusOK, s.tasks)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathVar(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findTask(model.TaskID(id))
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	writeJSON(w, http.StatusOK, s.tasks)
}

func (s *Server) findGrocery(name string) int {
	for i, g := range s.groceries {
		if g.Name == name {
			return i
		}
	}
	return -1
}

func (s *Server) findTask(id model.TaskID) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func pathVar(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	value, err := url.PathUnescape(mux.Vars(r)[key])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid path")
		return "", false
	}
	return value, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func cloneGroceries(items []model.GroceryItem) []model.GroceryItem {
	out := make([]model.GroceryItem, len(items))
	for i, item := range items {
		out[i] = model.NormalizeGrocery(item.Clone())
	}
	return out
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, task := range tasks {
		out[i] = task.Clone()
	}
	return out
}
