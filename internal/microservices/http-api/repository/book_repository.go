package repository

import (
	"context"
	"fmt"
	"strings"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookFilter narrows a catalog listing. Empty fields are ignored.
type BookFilter struct {
	Category        string // exact category name, case-insensitive
	AuthorFirstName string
	AuthorLastName  string
	Search          string // tokens matched against title, author names and category
	Ordering        string // title, -title, available_copies, -available_copies
	Page
}

var bookOrderings = map[string]string{
	"title":             "books.title ASC",
	"-title":            "books.title DESC",
	"available_copies":  "books.available_copies ASC",
	"-available_copies": "books.available_copies DESC",
}

// ValidBookOrdering reports whether o is an accepted ordering key.
func ValidBookOrdering(o string) bool {
	_, ok := bookOrderings[o]
	return o == "" || ok
}

type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id int64) (*models.Book, error)
	List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error)
	Update(ctx context.Context, book *models.Book) error
	ReplaceAuthors(ctx context.Context, book *models.Book, authors []models.Author) error
	Delete(ctx context.Context, id int64) error

	// copy ledger primitives, meant to run inside a transaction
	LockByID(ctx context.Context, id int64) (*models.Book, error)
	DecrementAvailable(ctx context.Context, id int64) (bool, error)
	IncrementAvailable(ctx context.Context, id int64) (bool, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create inserts the book and links it to already existing authors.
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := conn(ctx, r.db).Omit("Category", "Authors.*").Create(book).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *bookRepository) FindByID(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	if err := conn(ctx, r.db).
		Preload("Category").
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("authors.id ASC") }).
		First(&b, id).Error; err != nil {
		return nil, fmt.Errorf("find book %d: %w", id, err)
	}
	return &b, nil
}

// List applies filter, search and ordering, then paginates.
// Search splits the query into tokens; every token must match at least one of
// title, an author's first or last name, or the category name.
// Example: "dune herbert" -> (title LIKE '%dune%' OR ...) AND (title LIKE '%herbert%' OR ...)
func (r *bookRepository) List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error) {
	var (
		list  []models.Book
		total int64
	)
	q := conn(ctx, r.db).Model(&models.Book{})

	if filter.Category != "" {
		q = q.Where("books.category_id IN (SELECT id FROM categories WHERE LOWER(name) = LOWER(?))", filter.Category)
	}
	if filter.AuthorFirstName != "" {
		q = q.Where(`books.id IN (SELECT ba.book_id FROM book_authors ba
			JOIN authors a ON a.id = ba.author_id WHERE LOWER(a.first_name) = LOWER(?))`, filter.AuthorFirstName)
	}
	if filter.AuthorLastName != "" {
		q = q.Where(`books.id IN (SELECT ba.book_id FROM book_authors ba
			JOIN authors a ON a.id = ba.author_id WHERE LOWER(a.last_name) = LOWER(?))`, filter.AuthorLastName)
	}
	for _, token := range strings.Fields(filter.Search) {
		p := "%" + strings.ToLower(token) + "%"
		q = q.Where(`(LOWER(books.title) LIKE ?
			OR books.id IN (SELECT ba.book_id FROM book_authors ba JOIN authors a ON a.id = ba.author_id
				WHERE LOWER(a.first_name) LIKE ? OR LOWER(a.last_name) LIKE ?)
			OR books.category_id IN (SELECT id FROM categories WHERE LOWER(name) LIKE ?))`, p, p, p, p)
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	order, ok := bookOrderings[filter.Ordering]
	if !ok {
		order = "books.id ASC"
	}
	if err := filter.Page.apply(q.Order(order).Order("books.id ASC")).
		Preload("Category").
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("authors.id ASC") }).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return list, total, nil
}

// Update writes the scalar columns; associations are handled by ReplaceAuthors.
func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	res := conn(ctx, r.db).Model(book).
		Select("title", "isbn", "category_id", "total_copies", "available_copies").
		Updates(book)
	if res.Error != nil {
		return fmt.Errorf("update book: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update book %d: %w", book.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *bookRepository) ReplaceAuthors(ctx context.Context, book *models.Book, authors []models.Author) error {
	if err := conn(ctx, r.db).Model(book).Association("Authors").Replace(authors); err != nil {
		return fmt.Errorf("replace authors: %w", err)
	}
	book.Authors = authors
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	db := conn(ctx, r.db)
	if err := db.Exec("DELETE FROM book_authors WHERE book_id = ?", id).Error; err != nil {
		return fmt.Errorf("unlink book authors: %w", err)
	}
	res := db.Delete(&models.Book{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete book: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete book %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// LockByID reads the book with SELECT ... FOR UPDATE so concurrent ledger
// writers on the same row queue behind the current transaction.
func (r *bookRepository) LockByID(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	if err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&b, id).Error; err != nil {
		return nil, fmt.Errorf("lock book %d: %w", id, err)
	}
	return &b, nil
}

// DecrementAvailable takes one copy off the shelf. It reports false when no
// copy was available, leaving the row untouched.
func (r *bookRepository) DecrementAvailable(ctx context.Context, id int64) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Book{}).
		Where("id = ? AND available_copies > 0", id).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	if res.Error != nil {
		return false, fmt.Errorf("decrement available copies: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// IncrementAvailable puts one copy back. It reports false when every copy was
// already on the shelf.
func (r *bookRepository) IncrementAvailable(ctx context.Context, id int64) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Book{}).
		Where("id = ? AND available_copies < total_copies", id).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("increment available copies: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
