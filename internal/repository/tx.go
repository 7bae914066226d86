package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repos bundles every repository over one Querier. A pool-backed bundle
// serves plain reads; a tx-backed bundle scopes a unit of work.
type Repos struct {
	Amendments    AmendmentRepository
	Collaborators CollaboratorRepository
	Comments      CommentRepository
	Mentions      MentionRepository
	Watchers      WatcherRepository
	Reactions     ReactionRepository
	Notifications NotificationRepository
	History       HistoryRepository
	Defects       DefectRepository
	Executions    ExecutionRepository
}

// TxManager runs multi-repository units of work. Everything inside Do
// commits together or rolls back together so no partial state (a history
// entry without its field change, a notification without its event) is ever
// observable.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context, r *Repos) error) error
	View() *Repos
}

// Store is the pgx-backed TxManager.
type Store struct {
	pool  *pgxpool.Pool
	repos *Repos
}

// NewStore builds a store over a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, repos: newRepos(pool)}
}

func newRepos(q Querier) *Repos {
	return &Repos{
		Amendments:    &amendmentRepository{db: q},
		Collaborators: &collaboratorRepository{db: q},
		Comments:      &commentRepository{db: q},
		Mentions:      &mentionRepository{db: q},
		Watchers:      &watcherRepository{db: q},
		Reactions:     &reactionRepository{db: q},
		Notifications: &notificationRepository{db: q},
		History:       &historyRepository{db: q},
		Defects:       &defectRepository{db: q},
		Executions:    &executionRepository{db: q},
	}
}

// View returns pool-backed repositories for non-transactional reads.
func (s *Store) View() *Repos {
	return s.repos
}

// Do executes fn inside a transaction. If fn returns an error the
// transaction rolls back and the error is returned unchanged.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, r *Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, newRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
