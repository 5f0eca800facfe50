package repository

import (
	"context"
	"fmt"
	"os"

	"bookhub/internal/microservices/http-api/models"
	"bookhub/internal/rewards"

	"gopkg.in/yaml.v3"
)

// Catalog is the YAML seed file for books and their quizzes.
//
//	books:
//	  - id: 8b0c...
//	    title: Dune
//	    genre: sci-fi
//	    quiz:
//	      - prompt: Who is the Kwisatz Haderach?
//	        options: [Paul, Leto, Jessica]
//	        answer: 0
//	        points: 10
type Catalog struct {
	Books []CatalogBook `yaml:"books"`
}

type CatalogBook struct {
	models.Book `yaml:",inline"`
	Quiz        []CatalogQuestion `yaml:"quiz"`
}

type CatalogQuestion struct {
	Prompt  string   `yaml:"prompt"`
	Options []string `yaml:"options"`
	Answer  *int     `yaml:"answer"`
	Points  int      `yaml:"points"`
}

// LoadCatalog reads and parses a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, b := range c.Books {
		if b.ID == "" || b.Title == "" {
			return nil, fmt.Errorf("catalog %s: book %d needs an id and a title", path, i)
		}
	}
	return &c, nil
}

// Seed inserts the catalog's books that are not there yet and replaces the
// quizzes it lists. It returns the number of books created.
func (c *Catalog) Seed(ctx context.Context, store Store) (int, error) {
	created := 0
	err := store.WithinTx(ctx, func(tx Store) error {
		for _, entry := range c.Books {
			exists, err := tx.Books().Exists(ctx, entry.ID)
			if err != nil {
				return err
			}
			if !exists {
				book := entry.Book
				if err := tx.Books().Create(ctx, &book); err != nil {
					return err
				}
				created++
			}
			if len(entry.Quiz) == 0 {
				continue
			}
			quiz := &models.Quiz{BookID: entry.ID, Questions: entry.questions()}
			if err := tx.Quizzes().Upsert(ctx, quiz); err != nil {
				return err
			}
		}
		return nil
	})
	return created, err
}

func (b CatalogBook) questions() []rewards.Question {
	out := make([]rewards.Question, 0, len(b.Quiz))
	for _, q := range b.Quiz {
		out = append(out, rewards.Question{
			Prompt:      q.Prompt,
			Options:     q.Options,
			AnswerIndex: q.Answer,
			Points:      q.Points,
		})
	}
	return out
}
