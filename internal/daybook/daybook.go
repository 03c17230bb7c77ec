// Package daybook holds the core types shared by the planner and feed
// repositories.
package daybook

import (
	"context"
	"errors"
)

// ErrNotFound signals a key that has never been written.
var ErrNotFound = errors.New("resource not found")

// Storage keys for the persisted JSON blobs.
const (
	KeyDailyTasks       = "dailyTasks"
	KeyTemplates        = "Templates"
	KeyActiveTemplateID = "dailyTasksid"
	KeyFeeds            = "rssFeeds"
)

type (
	// Task is a single entry in the daily schedule, pinned to an hour of
	// the day ("00" through "23"). Multiple tasks may share an hour.
	Task struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Time    string `json:"time"`
	}

	// Template is a reusable, named schedule that can be applied over the
	// live daily tasks.
	Template struct {
		ID     int    `json:"id"`
		Title  string `json:"title"`
		Desc   string `json:"desc"`
		Public bool   `json:"public"`
		Items  []Task `json:"items"`
	}

	// FeedDescriptor is the stored metadata for one podcast feed.
	//
	// The URL is the unique key; default feeds are seeded by the app and
	// survive removal attempts.
	FeedDescriptor struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		Language      string `json:"language"`
		Copyright     string `json:"copyright"`
		LastBuildDate string `json:"lastBuildDate"`
		URL           string `json:"url"`
		IsDefault     bool   `json:"isDefault"`
	}

	// Episode is one playable item from a feed.
	Episode struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		AudioURL    string `json:"audioUrl"`
	}

	// Store is the durable key-value surface everything persists through.
	//
	// Get returns [ErrNotFound] when the key has never been written; that
	// absence is meaningful to callers (it triggers seeding), so stores
	// must not collapse it into an empty value.
	Store interface {
		Get(ctx context.Context, key string) (string, error)
		Set(ctx context.Context, key, value string) error
	}
)
