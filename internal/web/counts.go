package web

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gosuda/taskboard/internal/domain"
)

// maxCountRequests bounds the concurrent count requests of one page.
const maxCountRequests = 4

// taskCounter is the part of the API client that counts tasks.
type taskCounter interface {
	CountTasks(ctx context.Context, f domain.TaskFilter) (int, error)
}

// countByState counts the tasks of every state concurrently. The first
// failure cancels the remaining requests and no new ones are issued.
func countByState(ctx context.Context, api taskCounter, states []domain.State) (map[int]int, error) {
	var mu sync.Mutex
	counts := make(map[int]int, len(states))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxCountRequests)
	for _, s := range states {
		id := s.ID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := api.CountTasks(gctx, domain.TaskFilter{StateID: &id})
			if err != nil {
				return fmt.Errorf("state %d: %w", id, err)
			}
			mu.Lock()
			counts[id] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("web.countByState: %w", err)
	}
	return counts, nil
}
