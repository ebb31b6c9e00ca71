package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func TestListRoutes(t *testing.T) {
	routes, err := ListRoutes(petStoreFile)
	require.NoError(t, err)

	var got []string
	for _, r := range routes {
		got = append(got, r.Method+" "+r.Path)
	}
	assert.Equal(t, []string{
		"GET /pets",
		"POST /pets",
		"GET /pets/mine",
		"GET /pets/{id}",
	}, got, "literal segments are tried before variables")

	assert.Equal(t, "createPet", routes[1].OperationID)
	assert.Equal(t, []string{"application/json", "application/xml", "multipart/form-data"}, routes[1].BodyTypes)
	assert.Contains(t, routes[0].Parameters, "query.limit")
	assert.Equal(t, []string{"path.id"}, routes[3].Parameters)
}

func TestListRoutes_Invalid(t *testing.T) {
	_, err := ListRoutes("testdata/ambiguous.yaml")
	assert.Error(t, err)
}

func TestRoutesCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		stdout, _, err := execute(t, "routes", petStoreFile)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 5)
		assert.True(t, strings.HasPrefix(lines[0], "METHOD"))
		assert.Contains(t, lines[3], "listMyPets")
		assert.Contains(t, lines[4], "showPetById")
	})

	t.Run("yaml", func(t *testing.T) {
		stdout, _, err := execute(t, "routes", "-f", "yaml", petStoreFile)
		require.NoError(t, err)

		var routes []Route
		require.NoError(t, yaml.Unmarshal([]byte(stdout), &routes))
		require.Len(t, routes, 4)
		assert.Equal(t, "listPets", routes[0].OperationID)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, _, err := execute(t, "routes", "-f", "csv", petStoreFile)
		assert.ErrorContains(t, err, "invalid format 'csv'")
	})
}
