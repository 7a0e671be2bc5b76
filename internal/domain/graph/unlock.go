package graph

import "github.com/aliskhannn/study-planner-bot/internal/domain/entities"

// IsUnlocked reports whether every dependency of topic is completed.
// A topic without dependencies is always unlocked.
func IsUnlocked(topic entities.Topic, progressByTopic map[string]entities.ProgressRecord) bool {
	for _, dep := range topic.Dependencies {
		p, ok := progressByTopic[dep]
		if !ok || p.Status != entities.StatusCompleted {
			return false
		}
	}
	return true
}

// UnlockState returns the status of every topic in the graph. Completed and
// in-progress topics keep their progress status; the rest are pending when
// unlocked and locked otherwise.
func UnlockState(g *Graph, progressByTopic map[string]entities.ProgressRecord) map[string]entities.UnlockStatus {
	state := make(map[string]entities.UnlockStatus, g.Len())
	for id, t := range g.topics {
		state[id] = statusOf(t, progressByTopic)
	}
	return state
}

func statusOf(t entities.Topic, progressByTopic map[string]entities.ProgressRecord) entities.UnlockStatus {
	status := progressByTopic[t.ID].Status
	switch {
	case status == entities.StatusCompleted:
		return entities.UnlockCompleted
	case !IsUnlocked(t, progressByTopic):
		return entities.UnlockLocked
	case status == entities.StatusInProgress:
		return entities.UnlockInProgress
	default:
		return entities.UnlockPending
	}
}

// Blockers returns the direct prerequisites of id that are not completed.
func (g *Graph) Blockers(id string, progressByTopic map[string]entities.ProgressRecord) []string {
	var out []string
	for _, dep := range g.prerequisites[id] {
		if progressByTopic[dep].Status != entities.StatusCompleted {
			out = append(out, dep)
		}
	}
	return out
}
