package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"

	"banknote-review-service/internal/config"
	"banknote-review-service/internal/logger"
	appmongo "banknote-review-service/internal/mongo"
	"banknote-review-service/internal/repository"
	"banknote-review-service/internal/service"
)

// storage owns every backing connection the process opens.
type storage struct {
	mongo    *mongo.Client
	pg       *sqlx.DB
	denylist *repository.TokenDenylist

	reviews    service.AggregateStore
	users      service.UserStore
	avatars    service.AvatarStore
	mongoUsers *repository.UserRepository
	pgUsers    *repository.PGUserRepository

	log *logger.Logger
}

// openStorage connects to MongoDB, plus Postgres and Redis when configured.
func openStorage(ctx context.Context, cfg config.Config, log *logger.Logger) (*storage, error) {
	s := &storage{log: log.With("component", "storage")}

	client, err := appmongo.NewMongoClient(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	s.mongo = client
	db := client.Database(cfg.MongoDB)
	s.reviews = repository.NewReviewRepository(db)
	s.avatars = repository.NewAvatarRepository(db)
	s.log.Info("connected to mongo", "database", cfg.MongoDB)

	if cfg.DatabaseURL != "" {
		pg, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		s.pg = pg
		s.pgUsers = repository.NewPGUserRepository(pg)
		s.users = s.pgUsers
		s.log.Info("accounts stored in postgres")
	} else {
		s.mongoUsers = repository.NewUserRepository(db)
		s.users = s.mongoUsers
	}

	if cfg.RedisAddr != "" {
		denylist, err := repository.NewTokenDenylist(ctx, cfg.RedisAddr)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.denylist = denylist
		s.log.Info("token revocation enabled", "redis", cfg.RedisAddr)
	}
	return s, nil
}

// migrate creates the indexes and tables the stores rely on.
func (s *storage) migrate(ctx context.Context) error {
	if s.pgUsers != nil {
		if err := s.pgUsers.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	if s.mongoUsers != nil {
		if err := s.mongoUsers.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *storage) Close() {
	if s.denylist != nil {
		if err := s.denylist.Close(); err != nil {
			s.log.Warn("closing redis", "error", err)
		}
	}
	if s.pg != nil {
		if err := s.pg.Close(); err != nil {
			s.log.Warn("closing postgres", "error", err)
		}
	}
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mongo.Disconnect(ctx); err != nil {
			s.log.Warn("closing mongo", "error", err)
		}
	}
}
