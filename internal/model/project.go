package model

import "time"

// ProjectStatus is the lifecycle state of a side project.
//
// Transitions are free-form — a project can move between any two states via
// an explicit edit or via the GitHub importer's heuristic. The only rule is
// that entering "abandoned" or "shipped" stamps the matching date field.
type ProjectStatus string

const (
	StatusActive    ProjectStatus = "active"
	StatusPaused    ProjectStatus = "paused"
	StatusAbandoned ProjectStatus = "abandoned"
	StatusShipped   ProjectStatus = "shipped"
)

// Valid reports whether s is one of the four known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusAbandoned, StatusShipped:
		return true
	}
	return false
}

// Project represents a cataloged side project.
//
// DATE FIELDS AS POINTERS:
// started_date, abandoned_date, etc. are genuinely optional — a manually
// created project may have none of them. *time.Time distinguishes "not set"
// (nil) from the zero time, which JSON would otherwise render as year 1.
//
// STATUS / DATE STAMPING:
// Setting status to "abandoned" stamps AbandonedDate, "shipped" stamps
// ShippedDate. The opposite field is deliberately left untouched on repeated
// status flips — stale pairs are possible and accepted.
type Project struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"userId"`
	Name               string        `json:"name"`
	Slug               string        `json:"slug"`
	Description        string        `json:"description"`
	Status             ProjectStatus `json:"status"`
	TechStack          []string      `json:"techStack"` // ordered, ≤10, deduped
	StartedDate        *time.Time    `json:"startedDate"`
	LastWorkedDate     *time.Time    `json:"lastWorkedDate"`
	AbandonedDate      *time.Time    `json:"abandonedDate"`
	ShippedDate        *time.Time    `json:"shippedDate"`
	WhyStopped         string        `json:"whyStopped"`
	WhatLearned        string        `json:"whatLearned"`
	GitHubURL          string        `json:"githubUrl"`
	LiveURL            string        `json:"liveUrl"`
	ProgressPercentage int           `json:"progressPercentage"` // 0–100
	GitHubRepoID       *int64        `json:"githubRepoId"`       // nil unless imported
	IsFromGitHub       bool          `json:"isFromGithub"`
	IsPublic           bool          `json:"isPublic"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// ProjectStats are the aggregate counts shown on a public profile.
type ProjectStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Paused    int `json:"paused"`
	Abandoned int `json:"abandoned"`
	Shipped   int `json:"shipped"`
}

// TechCount is one entry of the "top technologies" list: a technology name
// and how many of the user's public projects use it.
type TechCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
