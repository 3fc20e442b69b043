package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"gopkg.in/yaml.v3"
)

// DefaultSeed returns the built-in starter catalog.
func DefaultSeed() []v1.BookRecord {
	return []v1.BookRecord{
		{ID: "S001", Title: "Lap Trinh Blockchain", Category: "CNTT", Author: "Nguyen Van A", PublicationYear: "2023", QuantityOnHand: 100},
		{ID: "S002", Title: "Tri Tue Nhan Tao", Category: "CNTT", Author: "Tran Thi B", PublicationYear: "2022", QuantityOnHand: 150},
		{ID: "S003", Title: "Kinh Te Vi Mo", Category: "Kinh Te", Author: "Le Van C", PublicationYear: "2021", QuantityOnHand: 200},
		{ID: "S004", Title: "Tieu Thuyet X", Category: "Van Hoc", Author: "Pham Thi D", PublicationYear: "2020", QuantityOnHand: 50},
		{ID: "S005", Title: "Khoa Hoc Du Lieu", Category: "CNTT", Author: "Hoang Van E", PublicationYear: "2024", QuantityOnHand: 120},
	}
}

// seedFile is the on-disk YAML shape.
type seedFile struct {
	Books []seedBook `yaml:"books"`
}

type seedBook struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Author   string `yaml:"author"`
	Year     string `yaml:"year"`
	Quantity string `yaml:"quantity"`
}

// LoadSeedDir reads every *.yaml / *.yml file in dir, in name order.
// A missing directory yields no books. Duplicate ids across files are an error.
func LoadSeedDir(dir string) ([]v1.BookRecord, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("seed path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading seed dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		books []v1.BookRecord
		seen  = make(map[string]string)
	)
	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading seed file %s: %w", path, err)
		}

		var f seedFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
		}

		for i, b := range f.Books {
			qty, err := strconv.ParseInt(strings.TrimSpace(b.Quantity), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("seed file %s book %d: quantity %q is not an integer", path, i, b.Quantity)
			}
			rec := v1.BookRecord{
				ID:              b.ID,
				Title:           b.Title,
				Category:        b.Category,
				Author:          b.Author,
				PublicationYear: b.Year,
				QuantityOnHand:  qty,
			}
			if err := rec.Validate(); err != nil {
				return nil, fmt.Errorf("seed file %s book %d: %w", path, i, err)
			}
			if prev, dup := seen[rec.ID]; dup {
				return nil, fmt.Errorf("book %q: duplicate seed id (also in %s)", rec.ID, prev)
			}
			seen[rec.ID] = path
			books = append(books, rec)
		}
	}
	return books, nil
}
