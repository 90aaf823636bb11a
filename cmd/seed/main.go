package main

import (
	"context"
	"log"

	"mentalmath/internal/catalog"
	"mentalmath/internal/config"
	"mentalmath/internal/database"
	"mentalmath/internal/domain"
	"mentalmath/internal/logger"
	"mentalmath/internal/repository"
	"mentalmath/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@mentalmath.local"
	adminPassword = "change-me-on-first-login"
)

func seedTopics() []domain.Topic {
	return []domain.Topic{
		{
			Slug:                  "addition",
			Title:                 "Addition",
			Description:           "Multi-digit mental addition",
			Subtopics:             []string{"two-digit", "three-digit", "carrying"},
			CanonicalMentalSkills: []string{"decomposition", "rounding"},
			MinDifficulty:         1,
			MaxDifficulty:         5,
		},
		{
			Slug:                  "multiplication",
			Title:                 "Multiplication",
			Description:           "Mental multiplication strategies",
			Subtopics:             []string{"tables", "two-digit", "squares"},
			CanonicalMentalSkills: []string{"distributive-split", "doubling"},
			MinDifficulty:         1,
			MaxDifficulty:         5,
		},
		{
			Slug:                  "fractions",
			Title:                 "Fractions",
			Description:           "Fraction arithmetic and comparison",
			Subtopics:             []string{"addition", "simplification", "comparison"},
			CanonicalMentalSkills: []string{"common-denominator", "cross-multiplication"},
			MinDifficulty:         2,
			MaxDifficulty:         5,
		},
	}
}

func seedQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:          "What is 27 + 48?",
			Topic:         "addition",
			SubTopic:      "two-digit",
			Difficulty:    1,
			Type:          domain.QuestionNumeric,
			CorrectAnswer: "75",
			Hints:         []string{"Round 48 up to 50, then subtract 2."},
			StrategyTip:   "Round one operand to the nearest ten.",
			EstimatedTime: 15,
			Provenance:    domain.ProvenanceProgrammatic,
		},
		{
			Text:          "What is 386 + 457?",
			Topic:         "addition",
			SubTopic:      "three-digit",
			Difficulty:    3,
			Type:          domain.QuestionNumeric,
			CorrectAnswer: "843",
			Hints:         []string{"Add hundreds, tens and ones separately."},
			StrategyTip:   "Decompose by place value.",
			EstimatedTime: 30,
			Provenance:    domain.ProvenanceProgrammatic,
		},
		{
			Text:          "What is 14 x 6?",
			Topic:         "multiplication",
			SubTopic:      "two-digit",
			Difficulty:    2,
			Type:          domain.QuestionNumeric,
			CorrectAnswer: "84",
			Hints:         []string{"Split 14 into 10 + 4."},
			StrategyTip:   "Use the distributive split: 10x6 + 4x6.",
			EstimatedTime: 20,
			Provenance:    domain.ProvenanceProgrammatic,
		},
		{
			Text:           "Which is larger: 3/4 or 5/7?",
			Topic:          "fractions",
			SubTopic:       "comparison",
			Difficulty:     3,
			Type:           domain.QuestionMultipleChoice,
			Options:        []string{"3/4", "5/7"},
			CorrectAnswer:  "3/4",
			AnswerVariants: []string{"3/4"},
			Hints:          []string{"Cross-multiply: 3x7 vs 5x4."},
			StrategyTip:    "Cross-multiplication avoids finding a common denominator.",
			EstimatedTime:  25,
			Provenance:     domain.ProvenanceCurated,
		},
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Logger)
	l := logger.Get()
	defer l.Sync()

	ctx := context.Background()

	mongoClient, err := catalog.Connect(ctx, &cfg.Mongo)
	if err != nil {
		l.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	topicCatalog := catalog.NewMongoTopicCatalog(mongoClient, cfg.Mongo.Database)
	questionCatalog := catalog.NewMongoQuestionCatalog(mongoClient, cfg.Mongo.Database)

	for _, topic := range seedTopics() {
		existing, err := topicCatalog.GetBySlug(ctx, topic.Slug)
		if err != nil {
			l.Fatal("Failed to check topic", zap.String("slug", topic.Slug), zap.Error(err))
		}
		if existing != nil {
			l.Info("Topic already seeded, skipping", zap.String("slug", topic.Slug))
			continue
		}
		t := topic
		if err := topicCatalog.Create(ctx, &t); err != nil {
			l.Fatal("Failed to seed topic", zap.String("slug", topic.Slug), zap.Error(err))
		}
		l.Info("Seeded topic", zap.String("slug", topic.Slug))
	}

	for _, question := range seedQuestions() {
		q := question
		if err := questionCatalog.Create(ctx, &q); err != nil {
			l.Fatal("Failed to seed question", zap.String("topic", question.Topic), zap.Error(err))
		}
		l.Info("Seeded question", zap.String("id", q.ID), zap.String("topic", q.Topic))
	}

	db, err := database.NewSQLXPostgresDB(cfg.GetDSN())
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewSQLXUserRepository(db)
	existing, err := userRepo.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		l.Fatal("Failed to check admin user", zap.Error(err))
	}
	if existing == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			l.Fatal("Failed to hash admin password", zap.Error(err))
		}
		admin := domain.NewUser("Administrator", adminEmail, string(hash), 0)
		admin.ID = util.NewULID()
		admin.Role = domain.RoleAdmin
		if err := userRepo.CreateUser(ctx, admin); err != nil {
			l.Fatal("Failed to seed admin user", zap.Error(err))
		}
		l.Info("Seeded admin user", zap.String("email", adminEmail))
	} else {
		l.Info("Admin user already exists, skipping")
	}

	l.Info("Seeding completed")
}
