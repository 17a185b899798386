// Package catalog loads RFPs, the product catalog and the pricing tests,
// either from JSON files or from a paged HTTP catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/rfperr"
	"github.com/spigell/rfp-responder/internal/types"
)

const (
	DefaultRFPDir       = "data/rfps"
	DefaultProductsFile = "data/products.json"
	DefaultPricingFile  = "data/pricing.json"

	rfpExt = ".json"
)

// Source provides the product catalog.
type Source interface {
	Products(ctx context.Context) (*types.Products, error)
}

// Paths locates the data files.
type Paths struct {
	RFPDir       string `mapstructure:"rfp-dir"`
	ProductsFile string `mapstructure:"products-file"`
	PricingFile  string `mapstructure:"pricing-file"`
}

func (p Paths) withDefaults() Paths {
	if p.RFPDir == "" {
		p.RFPDir = DefaultRFPDir
	}
	if p.ProductsFile == "" {
		p.ProductsFile = DefaultProductsFile
	}
	if p.PricingFile == "" {
		p.PricingFile = DefaultPricingFile
	}
	return p
}

// Store reads the data files.
type Store struct {
	paths    Paths
	validate *validator.Validate
	logger   *zap.Logger
}

func NewStore(paths Paths, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		paths:    paths.withDefaults(),
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *Store) Paths() Paths { return s.paths }

// LoadRFP reads <rfp-dir>/<id>.json.
func (s *Store) LoadRFP(id string) (*types.RFP, error) {
	if !validID(id) {
		return nil, rfperr.InvalidData(nil, "rfp id %q", id)
	}

	path := filepath.Join(s.paths.RFPDir, id+rfpExt)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Error("rfp file not found", zap.String("path", path))
		return nil, rfperr.NotFound("rfp %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading rfp %s: %w", id, err)
	}

	if err := validateDocument(schemaRFP, data); err != nil {
		s.logger.Error("invalid rfp", zap.String("path", path), zap.Error(err))
		return nil, rfperr.InvalidData(err, "rfp %s", id)
	}

	var rfp types.RFP
	if err := json.Unmarshal(data, &rfp); err != nil {
		return nil, rfperr.InvalidData(err, "rfp %s", id)
	}
	if err := s.validate.Struct(&rfp); err != nil {
		return nil, rfperr.InvalidData(err, "rfp %s", id)
	}
	if rfp.Requirements == nil {
		rfp.Requirements = []string{}
	}

	s.logger.Info("rfp loaded",
		zap.String("rfp_id", rfp.ID),
		zap.String("title", rfp.Title),
		zap.Int("requirements", len(rfp.Requirements)),
	)

	return &rfp, nil
}

// ListRFPs returns the ids of the RFP files, sorted.
func (s *Store) ListRFPs() ([]string, error) {
	entries, err := os.ReadDir(s.paths.RFPDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, rfperr.NotFound("rfp directory %s", s.paths.RFPDir)
	}
	if err != nil {
		return nil, fmt.Errorf("listing rfps: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, rfpExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, rfpExt))
	}
	sort.Strings(ids)

	return ids, nil
}

// Products loads the catalog file. The context is unused.
func (s *Store) Products(_ context.Context) (*types.Products, error) {
	return s.LoadProducts()
}

// LoadProducts reads the catalog file, which must hold a JSON list.
func (s *Store) LoadProducts() (*types.Products, error) {
	path := s.paths.ProductsFile

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Error("products file not found", zap.String("path", path))
		return nil, rfperr.NotFound("products file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading products: %w", err)
	}

	if err := validateDocument(schemaProducts, data); err != nil {
		s.logger.Error("invalid products file", zap.String("path", path), zap.Error(err))
		return nil, rfperr.InvalidData(err, "products file %s", path)
	}

	var items []*types.Product
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, rfperr.InvalidData(err, "products file %s", path)
	}

	products, err := checkProducts(s.validate, items)
	if err != nil {
		return nil, err
	}

	s.logger.Info("products loaded", zap.Int("count", products.Len()))

	return products, nil
}

func checkProducts(validate *validator.Validate, items []*types.Product) (*types.Products, error) {
	products := &types.Products{Items: make([]*types.Product, 0, len(items))}
	for i, product := range items {
		if product == nil {
			return nil, rfperr.InvalidData(nil, "product #%d is empty", i)
		}
		if err := validate.Struct(product); err != nil {
			return nil, rfperr.InvalidData(err, "product %q", product.ID)
		}
		if product.Specs == nil {
			product.Specs = []string{}
		}
		products.Items = append(products.Items, product)
	}
	return products, nil
}

// LoadPricingTests reads the pricing-test catalog. It never fails: a missing
// or malformed file yields an empty list.
func (s *Store) LoadPricingTests() []types.TestCost {
	path := s.paths.PricingFile
	tests := make([]types.TestCost, 0)

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("pricing file not readable, using empty list", zap.String("path", path), zap.Error(err))
		return tests
	}

	if err := validateDocument(schemaPricing, data); err != nil {
		s.logger.Error("invalid pricing file, using empty list", zap.String("path", path), zap.Error(err))
		return tests
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Error("invalid pricing file, using empty list", zap.String("path", path), zap.Error(err))
		return tests
	}

	if err := mapstructure.Decode(raw, &tests); err != nil {
		s.logger.Error("decoding pricing tests, using empty list", zap.String("path", path), zap.Error(err))
		return make([]types.TestCost, 0)
	}

	s.logger.Info("pricing tests loaded", zap.Int("count", len(tests)))

	return tests
}

// validID rejects ids that would escape the rfp directory.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
