// Package seeds fills the database with random campgrounds for development
package seeds

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/go-while/go-yelpcamp/internal/database"
	"github.com/go-while/go-yelpcamp/internal/models"
)

//go:embed seeds.yaml
var seedsYAML []byte

// City is one entry of the location list
type City struct {
	City  string `yaml:"city"`
	State string `yaml:"state"`
}

// Dataset holds the word lists random campgrounds are built from
type Dataset struct {
	Descriptors []string `yaml:"descriptors"`
	Places      []string `yaml:"places"`
	Cities      []City   `yaml:"cities"`
	Images      []string `yaml:"images"`
	Description string   `yaml:"description"`
}

// Price range of seeded campgrounds, in whole dollars
const (
	MinPrice = 10
	MaxPrice = 39
)

// LoadDataset parses a dataset and checks every list is usable
func LoadDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	if len(ds.Descriptors) == 0 || len(ds.Places) == 0 || len(ds.Cities) == 0 || len(ds.Images) == 0 {
		return nil, errors.New("seed data needs descriptors, places, cities and images")
	}
	return &ds, nil
}

// DefaultDataset returns the embedded dataset
func DefaultDataset() (*Dataset, error) {
	return LoadDataset(seedsYAML)
}

func sample[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.Intn(len(items))]
}

// Campground builds one random campground authored by authorID
func (ds *Dataset) Campground(rnd *rand.Rand, authorID primitive.ObjectID) *models.Campground {
	city := sample(rnd, ds.Cities)
	return &models.Campground{
		Title:       fmt.Sprintf("%s %s", sample(rnd, ds.Descriptors), sample(rnd, ds.Places)),
		Location:    fmt.Sprintf("%s, %s", city.City, city.State),
		Image:       sample(rnd, ds.Images),
		Price:       decimal.NewFromInt(int64(MinPrice + rnd.Intn(MaxPrice-MinPrice+1))),
		Description: ds.Description,
		AuthorID:    authorID,
	}
}

// Run wipes all campgrounds and inserts count random ones by author
func Run(db *database.Database, ds *Dataset, author *models.User, count int, rnd *rand.Rand, logger *zap.Logger) error {
	if count < 0 {
		return fmt.Errorf("invalid campground count %d", count)
	}
	if author == nil {
		return errors.New("seed author is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("seeds")

	deleted, err := db.DeleteAllCampgrounds()
	if err != nil {
		return fmt.Errorf("failed to wipe campgrounds: %w", err)
	}
	log.Info("Removed existing campgrounds", zap.Int64("count", deleted))

	for i := 0; i < count; i++ {
		if err := db.InsertCampground(ds.Campground(rnd, author.ID)); err != nil {
			return fmt.Errorf("failed to insert campground %d: %w", i+1, err)
		}
	}
	log.Info("Seeded campgrounds", zap.Int("count", count), zap.String("author", author.Username))
	return nil
}
