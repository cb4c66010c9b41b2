package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KaramelBytes/dsdash/internal/dataset"
	"github.com/KaramelBytes/dsdash/internal/utils"
)

// ErrNotImported is returned by Load when the store holds no dataset.
var ErrNotImported = errors.New("no dataset imported")

const batchSize = 500

// Posting is the persisted form of a dataset row.
type Posting struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Seq             int    `gorm:"index"`
	Industry        string `gorm:"index"`
	PositionTitle   string
	CompanyName     string
	City            string `gorm:"index"`
	Tier            string
	EmployeeCount   *float64
	AvgAnnualIncome *float64
	IncumbentCount  *float64
	AvgTenureDays   *float64
}

// Import records the dataset-level metadata of the current import.
type Import struct {
	ID            int64 `gorm:"primaryKey"`
	Name          string
	Fields        string
	SchemaVersion int
	RowCount      int
	Ctime         int64
}

// Store persists one imported dataset in sqlite.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite database at path and migrates the schema.
func Open(path string) (*Store, error) {
	path, err := utils.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&Posting{}, &Import{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ReplaceAll swaps the stored dataset for ds in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, ds *dataset.Dataset) error {
	records := slice.Map(ds.Rows, func(i int, r dataset.Row) Posting {
		return Posting{
			Seq:             i,
			Industry:        r.Industry,
			PositionTitle:   r.PositionTitle,
			CompanyName:     r.CompanyName,
			City:            r.City,
			Tier:            string(r.Tier),
			EmployeeCount:   r.EmployeeCount,
			AvgAnnualIncome: r.AvgAnnualIncome,
			IncumbentCount:  r.IncumbentCount,
			AvgTenureDays:   r.AvgTenureDays,
		}
	})
	fields := slice.Map(ds.Fields(), func(_ int, f dataset.Field) string { return string(f) })
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Posting{}).Error; err != nil {
			return fmt.Errorf("clear postings: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&Import{}).Error; err != nil {
			return fmt.Errorf("clear import: %w", err)
		}
		if len(records) > 0 {
			if err := tx.CreateInBatches(records, batchSize).Error; err != nil {
				return fmt.Errorf("insert postings: %w", err)
			}
		}
		imp := Import{
			ID:            1,
			Name:          ds.Name,
			Fields:        strings.Join(fields, ","),
			SchemaVersion: dataset.SchemaVersion,
			RowCount:      len(records),
			Ctime:         time.Now().UnixMilli(),
		}
		if err := tx.Create(&imp).Error; err != nil {
			return fmt.Errorf("record import: %w", err)
		}
		return nil
	})
}

// Load rebuilds the stored dataset in import order.
func (s *Store) Load(ctx context.Context) (*dataset.Dataset, error) {
	var imp Import
	err := s.db.WithContext(ctx).First(&imp, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotImported
	}
	if err != nil {
		return nil, fmt.Errorf("load import: %w", err)
	}
	if imp.SchemaVersion != dataset.SchemaVersion {
		return nil, fmt.Errorf("stored schema version %d, expected %d; re-import the file", imp.SchemaVersion, dataset.SchemaVersion)
	}
	var records []Posting
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load postings: %w", err)
	}
	rows := slice.Map(records, func(_ int, p Posting) dataset.Row {
		return dataset.Row{
			Industry:        p.Industry,
			PositionTitle:   p.PositionTitle,
			CompanyName:     p.CompanyName,
			City:            p.City,
			Tier:            dataset.Tier(p.Tier),
			EmployeeCount:   p.EmployeeCount,
			AvgAnnualIncome: p.AvgAnnualIncome,
			IncumbentCount:  p.IncumbentCount,
			AvgTenureDays:   p.AvgTenureDays,
		}
	})
	var fields []dataset.Field
	for _, f := range strings.Split(imp.Fields, ",") {
		if f != "" {
			fields = append(fields, dataset.Field(f))
		}
	}
	return dataset.New(imp.Name, rows, fields...), nil
}

// Count returns the number of stored postings.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Posting{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count postings: %w", err)
	}
	return n, nil
}

// Describe returns a one-line summary of the current import.
func (s *Store) Describe(ctx context.Context) (string, error) {
	var imp Import
	err := s.db.WithContext(ctx).First(&imp, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotImported
	}
	if err != nil {
		return "", err
	}
	at := time.UnixMilli(imp.Ctime).Format(time.RFC3339)
	return fmt.Sprintf("%s (%d rows, imported %s)", imp.Name, imp.RowCount, at), nil
}
