package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"familytree/internal/config"
	"familytree/internal/logger"
	"familytree/internal/member"
	"familytree/internal/model"
	"familytree/internal/repository"
	"familytree/internal/storage"
	"familytree/internal/telemetry"
	"familytree/internal/validator"
)

var errNotEmpty = errors.New("family document already has members, use -force to seed anyway")

func main() {
	force := flag.Bool("force", false, "seed even when the family document is not empty")
	flag.Parse()

	if err := run(context.Background(), *force); err != nil {
		slog.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, force bool) error {
	cfg := config.NewConfig()
	log := logger.New(*cfg)

	docs, err := storage.FromConfig(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize document storage: %w", err)
	}
	defer docs.Close()

	repo := repository.NewDocumentRepository(docs, cfg.Storage.DocumentKey, log)
	members := member.NewManager(repo, validator.New(), telemetry.Noop{}, log)

	count, err := seed(ctx, members, force)
	if err != nil {
		return err
	}

	log.Info("Demo family seeded", "members", count, "storage", cfg.Storage.Type, "key", cfg.Storage.DocumentKey)
	return nil
}

// seed adds three generations through the manager so that every record
// gets a generated id and linked spouse pointers.
func seed(ctx context.Context, members *member.Manager, force bool) (int, error) {
	existing, err := members.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 && !force {
		return 0, errNotEmpty
	}

	robert, margaret, err := members.AddCouple(ctx,
		model.Member{FirstName: "Robert", LastName: "Hayes", BirthDate: "1941-03-12", DeathDate: "2015-11-02", Relationship: model.RelationshipGrandparent, Gender: model.GenderMale, Location: "Dublin"},
		model.Member{FirstName: "Margaret", LastName: "Hayes", BirthDate: "1944-07-30", Relationship: model.RelationshipGrandparent, Gender: model.GenderFemale, Location: "Dublin", DonationAmount: 250},
		"",
	)
	if err != nil {
		return 0, err
	}

	david, err := members.AddChild(ctx, robert.ID, model.Member{
		FirstName: "David", LastName: "Hayes", BirthDate: "1968-01-21", Relationship: model.RelationshipParent,
		Gender: model.GenderMale, Location: "Cork", Email: "david@example.com", DonationAmount: 500,
	})
	if err != nil {
		return 0, err
	}

	if _, err := members.AddSpouse(ctx, david.ID, model.Member{
		FirstName: "Sarah", LastName: "Hayes", BirthDate: "1970-09-05", Relationship: model.RelationshipParent,
		Gender: model.GenderFemale, Location: "Cork", DonationAmount: 150,
	}); err != nil {
		return 0, err
	}

	if _, err := members.AddChild(ctx, margaret.ID, model.Member{
		FirstName: "Helen", LastName: "Walsh", BirthDate: "1972-04-18", Relationship: model.RelationshipAuntUncle,
		Gender: model.GenderFemale, Location: "Galway",
	}); err != nil {
		return 0, err
	}

	self, err := members.AddChild(ctx, david.ID, model.Member{
		FirstName: "Emma", LastName: "Hayes", BirthDate: "1995-06-14", Relationship: model.RelationshipSelf,
		Gender: model.GenderFemale, Location: "Dublin", Email: "emma@example.com", DonationAmount: 75,
	})
	if err != nil {
		return 0, err
	}

	if _, err := members.AddChild(ctx, david.ID, model.Member{
		FirstName: "Liam", LastName: "Hayes", BirthDate: "1998-12-02", Relationship: model.RelationshipSibling,
		Gender: model.GenderMale, Location: "London",
	}); err != nil {
		return 0, err
	}

	if _, err := members.AddChild(ctx, self.ID, model.Member{
		FirstName: "Noah", LastName: "Byrne", BirthDate: "2022-02-09", Relationship: model.RelationshipChild,
		Gender: model.GenderMale, Location: "Dublin",
	}); err != nil {
		return 0, err
	}

	all, err := members.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}
