// Package quickstart provides simple example code for documentation.
package quickstart

import (
	"context"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zee-sandev/outscope"
	"github.com/zee-sandev/outscope/docgen"
)

func ListNews(ctx context.Context, req *ListNewsParams) ([]*News, error) {
	// Your implementation
	return nil, nil
}

func CreateNews(ctx context.Context, req *CreateNewsParams) (*News, error) {
	// Your implementation
	return nil, nil
}

func newsContract() *outscope.Contract {
	return outscope.Group().
		Add("news", outscope.Group().
			Add("list", outscope.Route("GET", "/news")).
			Add("create", outscope.Route("POST", "/news")))
}

func exampleRegistration() {
	contract := newsContract()
	app := outscope.NewApp().WithContract(contract)

	news := contract.Child("news")
	app.MustRegister(outscope.NewController("news").
		Handle("list", news.Child("list"), outscope.Unary(ListNews)).
		Handle("create", news.Child("create"), outscope.Unary(CreateNews)))

	http.ListenAndServe(":8080", app.Handler())
}

func exampleDocumentation(app *outscope.App) {
	spec, err := docgen.Generate(app, &docgen.Config{Title: "News API", Version: "1.0.0"})
	if err != nil {
		log.Fatal(err)
	}
	data, err := yaml.Marshal(spec)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile("openapi.yaml", data, 0o644); err != nil {
		log.Fatal(err)
	}
}

// Keep imports used.
var (
	_ = context.Background
	_ = exampleRegistration
	_ = exampleDocumentation
)
