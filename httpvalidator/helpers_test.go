package httpvalidator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasgate/parser"
)

const petStoreSpec = `openapi: 3.0.3
info:
  title: Pet Store
  version: "1.0.0"
paths:
  /pets:
    get:
      operationId: listPets
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
            format: int32
            maximum: 100
        - name: type
          in: query
          style: deepObject
          schema:
            type: object
            properties:
              color:
                type: string
                enum: [red, blue, green]
        - name: fields
          in: query
          style: form
          explode: false
          schema:
            type: array
            items:
              type: string
        - name: X-Request-ID
          in: header
          schema:
            type: string
            format: uuid
      responses:
        "200":
          description: pets
          headers:
            X-Total-Count:
              required: true
              schema:
                type: integer
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
        default:
          description: error
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Error'
    post:
      operationId: createPet
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
          application/x-www-form-urlencoded:
            schema:
              $ref: '#/components/schemas/Pet'
          text/plain:
            schema:
              type: string
              minLength: 1
      responses:
        "201":
          description: created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
  /pets/mine:
    get:
      operationId: listMyPets
      parameters:
        - name: session
          in: cookie
          required: true
          schema:
            type: string
            minLength: 8
      responses:
        "200":
          description: my pets
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema:
          type: integer
          format: int64
    get:
      operationId: showPetById
      responses:
        "200":
          description: pet
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
        "4XX":
          description: client error
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Error'
    post:
      operationId: updatePet
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "200":
          description: updated
    put:
      operationId: replacePet
      requestBody:
        content:
          application/json: {}
      responses:
        "200":
          description: replaced
    delete:
      operationId: deletePet
      responses:
        "204":
          description: deleted
  /search:
    get:
      operationId: search
      x-additionalProperties: false
      parameters:
        - name: q
          in: query
          required: true
          schema:
            type: string
      responses:
        "200":
          description: results
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id:
          type: integer
          format: int64
        name:
          type: string
        tag:
          type: string
    Error:
      type: object
      required: [code, message]
      properties:
        code:
          type: integer
        message:
          type: string
`

// parseSpec parses an inline YAML document.
func parseSpec(t *testing.T, spec string) *parser.ParseResult {
	t.Helper()
	parsed, err := parser.ParseWithOptions(parser.WithBytes([]byte(spec), parser.SourceFormatYAML))
	require.NoError(t, err)
	return parsed
}

// compileSpec parses and compiles an inline YAML document.
func compileSpec(t *testing.T, spec string) *CompiledSpec {
	t.Helper()
	compiled, err := Compile(parseSpec(t, spec))
	require.NoError(t, err)
	return compiled
}

// newPetStoreValidator returns a validator over petStoreSpec.
func newPetStoreValidator(t *testing.T) *Validator {
	t.Helper()
	return NewFromSpec(compileSpec(t, petStoreSpec))
}

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }
