// Package ticktick is a client for the TickTick Open API, used to mirror
// extracted tasks into the external task manager.
package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/akastas/screenshot-processor/pkg/vault"
)

const defaultBaseURL = "https://api.ticktick.com/open/v1"

// priorityValues maps extraction priorities to TickTick's numeric scale.
var priorityValues = map[string]int{
	"high":   5,
	"medium": 3,
	"low":    1,
}

// PriorityValue converts an extraction priority to TickTick's numeric scale.
// Unknown and empty priorities map to 0 (none).
func PriorityValue(priority string) int {
	return priorityValues[strings.ToLower(priority)]
}

// Client talks to the TickTick Open API with an OAuth access token.
type Client struct {
	httpClient     *http.Client
	accessToken    string
	baseURL        string
	defaultProject string

	mu       sync.Mutex
	projects map[string]string // lowercase name -> id
}

var _ vault.TaskCreator = (*Client)(nil)

// NewClient creates a TickTick client. baseURL may be empty for the public
// API. defaultProject is the project used when an item carries no project
// hint; it is created on first use if absent.
func NewClient(accessToken, baseURL, defaultProject string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient:     &http.Client{},
		accessToken:    accessToken,
		baseURL:        baseURL,
		defaultProject: defaultProject,
	}
}

// Project is a TickTick project (task list).
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task is the TickTick task creation payload.
type Task struct {
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
	Priority  int    `json:"priority,omitempty"`
	DueDate   string `json:"dueDate,omitempty"`
	IsAllDay  bool   `json:"isAllDay,omitempty"`
}

// ListProjects fetches all projects. Results are cached on the client; use
// InvalidateCache to force a refetch.
func (c *Client) ListProjects(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.projects != nil {
		return c.projects, nil
	}

	body, err := c.do(ctx, http.MethodGet, "/project", nil)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var projects []Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	c.projects = make(map[string]string, len(projects))
	for _, p := range projects {
		c.projects[strings.ToLower(p.Name)] = p.ID
	}
	return c.projects, nil
}

// InvalidateCache drops the cached project list.
func (c *Client) InvalidateCache() {
	c.mu.Lock()
	c.projects = nil
	c.mu.Unlock()
}

// CreateProject creates a project and returns its ID.
func (c *Client) CreateProject(ctx context.Context, name string) (string, error) {
	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return "", fmt.Errorf("marshal project: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/project", payload)
	if err != nil {
		return "", fmt.Errorf("create project %s: %w", name, err)
	}

	var created Project
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode created project: %w", err)
	}

	c.mu.Lock()
	if c.projects != nil {
		c.projects[strings.ToLower(created.Name)] = created.ID
	}
	c.mu.Unlock()
	return created.ID, nil
}

// ResolveProject returns the ID for a project name, creating the project when
// it does not exist yet. Matching is case-insensitive.
func (c *Client) ResolveProject(ctx context.Context, name string) (string, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	if id, ok := projects[strings.ToLower(name)]; ok {
		return id, nil
	}
	return c.CreateProject(ctx, name)
}

// CreateItemTask creates the TickTick task for one extracted item.
func (c *Client) CreateItemTask(ctx context.Context, spec vault.TaskSpec) error {
	task := Task{
		Title:    spec.Title,
		Content:  spec.Description,
		Priority: PriorityValue(spec.Priority),
	}
	if len(spec.Tags) > 0 {
		if task.Content != "" {
			task.Content += "\n"
		}
		task.Content += "Tags: " + strings.Join(spec.Tags, ", ")
	}
	if spec.DueDate != "" {
		task.DueDate = spec.DueDate + "T00:00:00+0000"
		task.IsAllDay = true
	}

	projectName := spec.ProjectHint
	if projectName == "" {
		projectName = c.defaultProject
	}
	if projectName != "" {
		id, err := c.ResolveProject(ctx, projectName)
		if err != nil {
			// Fall back to the inbox rather than losing the task.
			log.Printf("ticktick: resolve project %q: %v", projectName, err)
		} else {
			task.ProjectID = id
		}
	}

	return c.CreateTask(ctx, task)
}

// CreateTask posts a task to TickTick.
func (c *Client) CreateTask(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, "/task", payload); err != nil {
		return fmt.Errorf("create task %q: %w", task.Title, err)
	}
	return nil
}

// ListTasks returns the open tasks of a project, for dashboard summaries.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]TaskInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/project/"+projectID+"/data", nil)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var data struct {
		Tasks []TaskInfo `json:"tasks"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return data.Tasks, nil
}

// TaskInfo is the subset of TickTick task fields the dashboard reads.
type TaskInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Priority int    `json:"priority"`
	DueDate  string `json:"dueDate"`
	Status   int    `json:"status"`
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBytes))
	}
	return respBytes, nil
}
