package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tunegrab/internal/model"
)

// loadJobFile reads and validates a YAML job file.
func loadJobFile(path string) (model.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Job{}, fmt.Errorf("failed to read job file %s: %w", path, err)
	}

	var job model.Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return model.Job{}, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}

	if job.Folder == "" {
		return model.Job{}, fmt.Errorf("job file %s: folder is required", path)
	}
	for i, track := range job.Tracks {
		if track.Title == "" {
			return model.Job{}, fmt.Errorf("job file %s: track %d has no title", path, i+1)
		}
	}

	return job, nil
}
