package entities

// Bucket is the priority group of an active topic.
type Bucket string

const (
	BucketHigh   Bucket = "high"
	BucketMedium Bucket = "medium"
	BucketLow    Bucket = "low"
)

// UnlockStatus describes a topic for a given user.
// Pending means unlocked and ready to start.
type UnlockStatus string

const (
	UnlockLocked     UnlockStatus = "locked"
	UnlockPending    UnlockStatus = "pending"
	UnlockInProgress UnlockStatus = "in_progress"
	UnlockCompleted  UnlockStatus = "completed"
)

// TopicView is a topic as shown in a study plan.
type TopicView struct {
	ID         string
	Title      string
	ExamWeight float64
	Status     UnlockStatus
	Score      float64
	Blockers   []string // incomplete direct prerequisites, only for locked topics
}

// StudyPlan is the ranked study queue of one user within one subject.
type StudyPlan struct {
	UserID                string
	SubjectID             string
	High                  []TopicView
	Medium                []TopicView
	Low                   []TopicView
	AwaitingPrerequisites []TopicView
	Completed             int // completed topics, not listed in the plan
}

// Active returns the high, medium and low topics in ranked order.
func (p *StudyPlan) Active() []TopicView {
	out := make([]TopicView, 0, len(p.High)+len(p.Medium)+len(p.Low))
	out = append(out, p.High...)
	out = append(out, p.Medium...)
	return append(out, p.Low...)
}

// Next returns the first topic to study, if any.
func (p *StudyPlan) Next() (TopicView, bool) {
	for _, list := range [][]TopicView{p.High, p.Medium, p.Low} {
		if len(list) > 0 {
			return list[0], true
		}
	}
	return TopicView{}, false
}

// ProgressSummary aggregates progress of a user within a subject.
type ProgressSummary struct {
	TotalTopics       int
	Completed         int
	InProgress        int
	NotStarted        int
	Locked            int
	WeightedCompleted float64 // completed exam weight / total exam weight, 0-100
	TimeSpentMinutes  int
	DueReviews        int
	MasteredReviews   int
	TotalReviews      int
	Forecast          []int // reviews falling due on each of the next days, today first
}
