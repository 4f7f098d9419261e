package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type seedFile struct {
	Products []seedProduct `yaml:"products"`
	Accounts []seedAccount `yaml:"accounts"`
}

type seedProduct struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       int64    `yaml:"price"`
	Category    string   `yaml:"category"`
	Images      []string `yaml:"images"`
	Stock       int      `yaml:"stock"`
}

type seedAccount struct {
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
	Documento string `yaml:"documento"`
	Password  string `yaml:"password"`
	Admin     bool   `yaml:"admin"`
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load products and accounts from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			seed, err := readSeedFile(args[0])
			if err != nil {
				return err
			}

			st, err := openStores(ctx, opts)
			if err != nil {
				return err
			}
			defer st.Close()

			catalog := service.NewCatalogService(st.products, opts.log)
			auth := service.NewAuthService(st.accounts, st.sessions, opts.cfg.BcryptCost, opts.log)
			return applySeed(ctx, seed, catalog, auth, opts.log)
		},
	}
}

func readSeedFile(path string) (seedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return seedFile{}, err
	}
	defer f.Close()
	return parseSeed(f)
}

func parseSeed(r io.Reader) (seedFile, error) {
	var seed seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return seedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	return seed, nil
}

// applySeed creates every product and account in the file. Accounts that
// already exist are skipped so the command can be re-run.
func applySeed(ctx context.Context, seed seedFile, catalog *service.CatalogService, auth *service.AuthService, log *logrus.Logger) error {
	for i, p := range seed.Products {
		_, err := catalog.CreateProduct(ctx, service.ProductInput{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Category:    domain.Category(p.Category),
			Images:      p.Images,
			Stock:       p.Stock,
		})
		if err != nil {
			return fmt.Errorf("product %d (%s): %w", i, p.Name, err)
		}
	}

	for _, a := range seed.Accounts {
		in := service.RegisterInput{Name: a.Name, Email: a.Email, Documento: a.Documento, Password: a.Password}
		var err error
		if a.Admin {
			_, err = auth.RegisterAdmin(ctx, in)
		} else {
			_, err = auth.Register(ctx, in)
		}
		if errors.Is(err, domain.ErrConflict) {
			log.WithField("email", a.Email).Info("account exists, skipped")
			continue
		}
		if err != nil {
			return fmt.Errorf("account %s: %w", a.Email, err)
		}
	}

	log.WithFields(logrus.Fields{
		"products": len(seed.Products),
		"accounts": len(seed.Accounts),
	}).Info("seed applied")
	return nil
}
