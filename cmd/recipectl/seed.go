package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/recipebox/recipebox-server/internal/di/providers"
	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/service"
	"github.com/recipebox/recipebox-server/internal/store"
)

// Fixtures is the seed file format.
//
//	users:
//	  - email: chef@example.com
//	    name: Chef
//	    password: secret
//	    recipes:
//	      - title: Pancakes
//	        time_minutes: 20
//	        price: "4.50"
//	        tags: [Breakfast]
//	        ingredients: [Flour, Eggs, Milk]
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
}

// UserFixture is one account and the recipes it owns.
type UserFixture struct {
	Email    string          `yaml:"email"`
	Name     string          `yaml:"name"`
	Password string          `yaml:"password"`
	Recipes  []RecipeFixture `yaml:"recipes"`
}

// RecipeFixture is one recipe; tags and ingredients are plain names.
type RecipeFixture struct {
	Title       string   `yaml:"title"`
	TimeMinutes int      `yaml:"time_minutes"`
	Price       string   `yaml:"price"`
	Link        string   `yaml:"link"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Ingredients []string `yaml:"ingredients"`
}

// parseFixtures decodes a seed file, rejecting unknown keys.
func parseFixtures(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixtures
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	for i, u := range f.Users {
		if u.Email == "" {
			return nil, fmt.Errorf("users[%d]: email is required", i)
		}
	}
	return &f, nil
}

// Input converts the fixture to the payload the recipe service accepts.
func (r RecipeFixture) Input() service.RecipeInput {
	in := service.RecipeInput{
		Title:       &r.Title,
		TimeMinutes: &r.TimeMinutes,
		Price:       (*service.PriceInput)(&r.Price),
		Tags:        names(r.Tags),
		Ingredients: names(r.Ingredients),
	}
	if r.Link != "" {
		in.Link = &r.Link
	}
	if r.Description != "" {
		in.Description = &r.Description
	}
	return in
}

func names(values []string) *[]service.NameInput {
	out := make([]service.NameInput, 0, len(values))
	for _, v := range values {
		out = append(out, service.NameInput{Name: v})
	}
	return &out
}

// seedResult counts what a seed run created.
type seedResult struct {
	Users   int
	Recipes int
}

// seeder applies fixtures through the services so validation, nested
// get-or-create and indexing behave as they do over HTTP.
type seeder struct {
	store   store.Store
	auth    *service.AuthService
	recipes *service.RecipeService
}

// Seed creates missing users and adds every fixture recipe. Existing users
// are reused; their password is left unchanged.
func (s *seeder) Seed(ctx context.Context, f *Fixtures) (seedResult, error) {
	var res seedResult
	for _, uf := range f.Users {
		user, created, err := s.user(ctx, uf)
		if err != nil {
			return res, err
		}
		if created {
			res.Users++
		}

		for _, rf := range uf.Recipes {
			if _, err := s.recipes.Create(ctx, user.ID, rf.Input()); err != nil {
				return res, fmt.Errorf("recipe %q for %s: %w", rf.Title, uf.Email, err)
			}
			res.Recipes++
		}
	}
	return res, nil
}

func (s *seeder) user(ctx context.Context, uf UserFixture) (*domain.User, bool, error) {
	existing, err := s.store.GetUserByEmail(ctx, domain.NormalizeEmail(uf.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("look up %s: %w", uf.Email, err)
	}

	user, err := s.auth.Register(ctx, service.RegisterRequest{
		Email:    uf.Email,
		Name:     uf.Name,
		Password: uf.Password,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create user %s: %w", uf.Email, err)
	}
	return user, true, nil
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users and recipes from a YAML fixtures file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fh, err := os.Open(file) //#nosec G304 -- path comes from the operator
			if err != nil {
				return fmt.Errorf("open fixtures: %w", err)
			}
			defer fh.Close()

			fixtures, err := parseFixtures(fh)
			if err != nil {
				return err
			}

			return opts.withContainer(func(injector *do.RootScope) error {
				storeHandle, err := do.Invoke[*providers.StoreHandle](injector)
				if err != nil {
					return err
				}
				authService, err := do.Invoke[*service.AuthService](injector)
				if err != nil {
					return err
				}
				recipes, err := do.Invoke[*service.RecipeService](injector)
				if err != nil {
					return err
				}

				s := &seeder{store: storeHandle.Store, auth: authService, recipes: recipes}
				res, err := s.Seed(cmd.Context(), fixtures)
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d users and %d recipes\n", res.Users, res.Recipes)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Fixtures file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
