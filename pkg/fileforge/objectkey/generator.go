// Package objectkey generates the public identifiers (storage keys) assigned
// to uploaded objects. Keys carry the lifecycle folder as their first path
// segment and a random component so concurrent uploads of identically named
// files never collide.
package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates an object key under the given lifecycle folder.
	GenerateKey(folder, filename string) string
}

// RandomGenerator produces flat keys: {folder}/{32hex}_{filename}
type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) GenerateKey(folder, filename string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")

	name := id
	if filename != "" {
		name = fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	}
	if folder == "" {
		return name
	}
	return fmt.Sprintf("%s/%s", sanitizePathComponent(folder), name)
}

// ShardedGenerator produces Git-style sharded keys for filesystem-backed
// stores: {folder}/{shard}/{rest}_{filename}
type ShardedGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{
		ShardLength: 2,
	}
}

func (g *ShardedGenerator) GenerateKey(folder, filename string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")

	shardLen := g.ShardLength
	if shardLen <= 0 || shardLen >= len(id) {
		shardLen = 2
	}
	shard := id[:shardLen]
	remaining := id[shardLen:]

	name := remaining
	if filename != "" {
		name = fmt.Sprintf("%s_%s", remaining, sanitizeFilename(filename))
	}
	if folder == "" {
		return fmt.Sprintf("%s/%s", shard, name)
	}
	return fmt.Sprintf("%s/%s/%s", sanitizePathComponent(folder), shard, name)
}

// CustomFuncGenerator allows callers to provide their own key generation
// function.
type CustomFuncGenerator struct {
	GenerateFunc func(folder, filename string) string
}

func NewCustomFuncGenerator(fn func(folder, filename string) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(folder, filename string) string {
	return g.GenerateFunc(folder, filename)
}

// Helper functions for path sanitization

func sanitizeFilename(filename string) string {
	// Replace problematic characters for filesystem compatibility
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(filename)
}

func sanitizePathComponent(component string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return strings.ToLower(replacer.Replace(component))
}

// NewRecommendedGenerator returns the generator used by stores that do not
// need directory sharding (object stores with flat namespaces).
func NewRecommendedGenerator() Generator {
	return NewRandomGenerator()
}
