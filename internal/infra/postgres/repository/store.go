package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aliskhannn/study-planner-bot/internal/infra/postgres"
)

// Store bundles the PostgreSQL repositories behind one value.
type Store struct {
	*TopicRepository
	*ProgressRepository
	*ReviewItemRepository
	*FlashcardRepository
	*SubjectRepository
	*UserRepository
}

// NewStore creates every repository on top of pool.
func NewStore(pool *pgxpool.Pool) *Store {
	transactor := postgres.NewTransactor(pool)
	return &Store{
		TopicRepository:      NewTopicRepository(pool),
		ProgressRepository:   NewProgressRepository(pool),
		ReviewItemRepository: NewReviewItemRepository(pool, transactor),
		FlashcardRepository:  NewFlashcardRepository(pool),
		SubjectRepository:    NewSubjectRepository(transactor),
		UserRepository:       NewUserRepository(pool),
	}
}
