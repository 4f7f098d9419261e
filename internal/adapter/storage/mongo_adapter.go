package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rl1809/storefront/internal/core/domain"
)

const accountsCollection = "accounts"

type accountDocument struct {
	ID            string             `bson:"_id"`
	Name          string             `bson:"name"`
	Email         string             `bson:"email"`
	Documento     string             `bson:"documento"`
	PasswordHash  string             `bson:"password_hash,omitempty"`
	Provider      string             `bson:"provider"`
	Image         string             `bson:"image,omitempty"`
	Role          string             `bson:"rol"`
	Cart          []cartItemDocument `bson:"cart"`
	CartVersion   int                `bson:"cart_version"`
	CartUpdatedAt time.Time          `bson:"cart_updated_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

type cartItemDocument struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

// MongoAdapter keeps each account's cart embedded in the account document, so
// a cart save is a read-modify-write of one document guarded by cart_version.
type MongoAdapter struct {
	accounts *mongo.Collection
}

func NewMongoAdapter(db *mongo.Database) *MongoAdapter {
	return &MongoAdapter{accounts: db.Collection(accountsCollection)}
}

func (m *MongoAdapter) EnsureIndexes(ctx context.Context) error {
	_, err := m.accounts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "documento", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}
	return nil
}

func (m *MongoAdapter) CreateAccount(ctx context.Context, a domain.Account) error {
	doc := accountDocument{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Documento:    a.Documento,
		PasswordHash: a.PasswordHash,
		Provider:     string(a.Provider),
		Image:        a.Image,
		Role:         string(a.Role),
		Cart:         []cartItemDocument{},
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}

	_, err := m.accounts.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), "documento") {
			return domain.ErrDocumentTaken
		}
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (m *MongoAdapter) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return m.findAccount(ctx, bson.M{"_id": id})
}

func (m *MongoAdapter) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return m.findAccount(ctx, bson.M{"email": email})
}

func (m *MongoAdapter) FindAccountByDocument(ctx context.Context, documento string) (*domain.Account, error) {
	return m.findAccount(ctx, bson.M{"documento": documento})
}

func (m *MongoAdapter) findAccount(ctx context.Context, filter bson.M) (*domain.Account, error) {
	doc, err := m.findDocument(ctx, filter)
	if doc == nil || err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:           doc.ID,
		Name:         doc.Name,
		Email:        doc.Email,
		Documento:    doc.Documento,
		PasswordHash: doc.PasswordHash,
		Provider:     domain.Provider(doc.Provider),
		Image:        doc.Image,
		Role:         domain.Role(doc.Role),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (m *MongoAdapter) findDocument(ctx context.Context, filter bson.M) (*accountDocument, error) {
	var doc accountDocument
	err := m.accounts.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &doc, nil
}

func (m *MongoAdapter) GetCart(ctx context.Context, accountID string) (*domain.StoredCart, error) {
	doc, err := m.findDocument(ctx, bson.M{"_id": accountID})
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.CartVersion == 0 {
		return nil, nil
	}

	cart := &domain.StoredCart{
		AccountID: accountID,
		Items:     make([]domain.CartItem, 0, len(doc.Cart)),
		Version:   doc.CartVersion,
		UpdatedAt: doc.CartUpdatedAt,
	}
	for _, it := range doc.Cart {
		cart.Items = append(cart.Items, domain.CartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return cart, nil
}

func (m *MongoAdapter) SaveCart(ctx context.Context, cart domain.StoredCart) error {
	items := make([]cartItemDocument, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, cartItemDocument{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	result, err := m.accounts.UpdateOne(ctx,
		bson.M{"_id": cart.AccountID, "cart_version": cart.Version},
		bson.M{"$set": bson.M{
			"cart":            items,
			"cart_version":    cart.Version + 1,
			"cart_updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOptimisticLock
	}
	return nil
}
