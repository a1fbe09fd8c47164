package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/director"
)

// defaultMaxSessions bounds how many director pipelines are held in memory.
const defaultMaxSessions = 32

type session struct {
	pipeline *director.Pipeline
	created  time.Time
}

// sessions is the registry of live director pipelines. When full, the
// oldest session is closed to make room.
type sessions struct {
	max int

	mu    sync.Mutex
	byID  map[string]*session
	order []string
}

func newSessions(max int) *sessions {
	if max < 1 {
		max = defaultMaxSessions
	}
	return &sessions{max: max, byID: make(map[string]*session)}
}

func (s *sessions) add(p *director.Pipeline) string {
	id := uuid.NewString()

	s.mu.Lock()
	var evicted *director.Pipeline
	if len(s.order) >= s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		evicted = s.byID[oldest].pipeline
		delete(s.byID, oldest)
		log.Info().Str("session", oldest).Msg("Director session evicted")
	}
	s.byID[id] = &session{pipeline: p, created: time.Now()}
	s.order = append(s.order, id)
	s.mu.Unlock()

	if evicted != nil {
		evicted.Close()
	}
	return id
}

func (s *sessions) get(id string) (*director.Pipeline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return sess.pipeline, true
}

func (s *sessions) remove(id string) bool {
	s.mu.Lock()
	sess, ok := s.byID[id]
	if ok {
		delete(s.byID, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if ok {
		sess.pipeline.Close()
	}
	return ok
}

func (s *sessions) closeAll() {
	s.mu.Lock()
	all := s.byID
	s.byID = make(map[string]*session)
	s.order = nil
	s.mu.Unlock()

	for _, sess := range all {
		sess.pipeline.Close()
	}
}
