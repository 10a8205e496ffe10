package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "pages/news.example/job-1.md", ObjectName("news.example", "job-1"))
}
