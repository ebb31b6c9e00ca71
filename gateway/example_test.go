package gateway_test

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/erraggy/oasgate/gateway"
)

func ExampleGateway_Middleware() {
	gw, err := gateway.New(gateway.WithDocumentFile("testdata/pet-store.json"))
	if err != nil {
		log.Fatal(err)
	}

	pets := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vc, _ := gateway.FromContext(r.Context())
		fmt.Printf("%s limit=%v (%T)\n", vc.Operation, vc.QueryParams["limit"], vc.QueryParams["limit"])
		w.WriteHeader(http.StatusOK)
	})
	handler := gw.Middleware(pets)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets?limit=10", nil))
	fmt.Println("status:", rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(`{"id": 1, "tag": "t"}`))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(rec, req)
	fmt.Println("status:", rec.Code)
	fmt.Println(rec.Body.String())

	// Output:
	// GET /pets limit=10 (int64)
	// status: 200
	// status: 400
	// {"message":"request validation failed","code":400,"details":[{"field":"name","location":"body","reason":"is required"}]}
}

func ExampleWithErrorHandler() {
	plain := func(w http.ResponseWriter, _ *http.Request, err error) error {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = fmt.Fprintln(w, err)
		return nil
	}
	gw, err := gateway.New(
		gateway.WithDocumentFile("testdata/pet-store.json"),
		gateway.WithErrorHandler(plain),
	)
	if err != nil {
		log.Fatal(err)
	}

	rec := httptest.NewRecorder()
	gw.Middleware(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets/rex", nil))
	fmt.Print(rec.Code, " ", rec.Body.String())

	// Output:
	// 422 request validation failed: path.id: is not a valid integer
}
