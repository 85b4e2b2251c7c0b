package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// WorkflowsClient covers project workflows and their steps.
type WorkflowsClient struct {
	client *Client
}

// InstantiateRequest creates a project's steps from a named template or an
// inline one.
type InstantiateRequest struct {
	Name         string    `json:"name,omitempty"`
	TemplateName string    `json:"template_name,omitempty"`
	Template     *Template `json:"template,omitempty"`
}

func projectPath(projectID string) string {
	return "/projects/" + url.PathEscape(projectID) + "/workflow"
}

func (c *WorkflowsClient) Get(ctx context.Context, projectID string) (*WorkflowView, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	var v WorkflowView
	if err := c.client.get(ctx, projectPath(projectID), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *WorkflowsClient) Instantiate(ctx context.Context, projectID string, req InstantiateRequest) (*WorkflowView, error) {
	var v WorkflowView
	if err := c.client.post(ctx, projectPath(projectID), req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetStepDone marks a step done or undone. completion defaults to the
// server's today when marking done.
func (c *WorkflowsClient) SetStepDone(ctx context.Context, stepID string, done bool, completion *time.Time) (*StepView, error) {
	body := struct {
		Done           bool   `json:"done"`
		CompletionDate string `json:"completion_date,omitempty"`
	}{Done: done, CompletionDate: formatDate(completion)}

	var v StepView
	if err := c.client.put(ctx, "/steps/"+url.PathEscape(stepID)+"/done", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateStepDates replaces both dates of a step. A nil date is cleared.
func (c *WorkflowsClient) UpdateStepDates(ctx context.Context, stepID string, start, completion *time.Time) (*StepView, error) {
	body := struct {
		StartDate      string `json:"start_date"`
		CompletionDate string `json:"completion_date"`
	}{StartDate: formatDate(start), CompletionDate: formatDate(completion)}

	var v StepView
	if err := c.client.patch(ctx, "/steps/"+url.PathEscape(stepID)+"/dates", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *WorkflowsClient) Templates(ctx context.Context) ([]Template, error) {
	var out []Template
	if err := c.client.get(ctx, "/workflow-templates", &out); err != nil {
		return nil, err
	}
	return out, nil
}

//Personal.AI order the ending
