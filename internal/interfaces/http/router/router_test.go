package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	r.Register(group)

	assert.Len(t, r.registrars, 1)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	// Test the route was registered
	req := httptest.NewRequest("GET", "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("documents", "/documents")
		assert.Equal(t, "documents", g.Name())
		assert.Equal(t, "/documents", g.Prefix())
	})

	t.Run("registers GET route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "items")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registers POST route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.POST("/items", func(c *gin.Context) {
			c.String(http.StatusCreated, "created")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("POST", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("registers PUT route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.PUT("/items/:id", func(c *gin.Context) {
			c.String(http.StatusOK, "updated")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("PUT", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registers PATCH route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.PATCH("/items/:id", func(c *gin.Context) {
			c.String(http.StatusOK, "patched")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("PATCH", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registers DELETE route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.DELETE("/items/:id", func(c *gin.Context) {
			c.String(http.StatusNoContent, "")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("DELETE", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")

		// Add middleware that sets a header
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})

		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("documents", "/documents")

		bundled := g.Group("bundled", "/bundled")
		bundled.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "bundled list")
		})

		local := g.Group("local", "/local")
		local.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "local list")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		// Test bundled route
		req1 := httptest.NewRequest("GET", "/api/v1/documents/bundled", nil)
		w1 := httptest.NewRecorder()
		engine.ServeHTTP(w1, req1)
		assert.Equal(t, http.StatusOK, w1.Code)
		assert.Equal(t, "bundled list", w1.Body.String())

		// Test local route
		req2 := httptest.NewRequest("GET", "/api/v1/documents/local", nil)
		w2 := httptest.NewRecorder()
		engine.ServeHTTP(w2, req2)
		assert.Equal(t, http.StatusOK, w2.Code)
		assert.Equal(t, "local list", w2.Body.String())
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	documents := NewDomainGroup("documents", "/documents")
	documents.GET("/bundled", func(c *gin.Context) {
		c.String(http.StatusOK, "bundled")
	})

	printing := NewDomainGroup("print", "/print")
	printing.GET("/jobs", func(c *gin.Context) {
		c.String(http.StatusOK, "jobs")
	})

	r.Register(documents).Register(printing)
	r.Setup()

	// Test documents route
	req1 := httptest.NewRequest("GET", "/api/v1/documents/bundled", nil)
	w1 := httptest.NewRecorder()
	engine.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "bundled", w1.Body.String())

	// Test print route
	req2 := httptest.NewRequest("GET", "/api/v1/print/jobs", nil)
	w2 := httptest.NewRecorder()
	engine.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "jobs", w2.Body.String())
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("test", "/test")
	g.GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
		POST("/b", func(c *gin.Context) { c.String(http.StatusOK, "b") }).
		PUT("/c", func(c *gin.Context) { c.String(http.StatusOK, "c") })

	r.Register(g).Setup()

	// All routes should be registered
	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/test/a"},
		{"POST", "/api/v1/test/b"},
		{"PUT", "/api/v1/test/c"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Route %s %s should work", tt.method, tt.path)
	}
}

func TestRouterRoutes(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	documents := NewDomainGroup("documents", "/documents")
	documents.GET("", func(c *gin.Context) {}).Describe("List documents")
	documents.GET("/:name", func(c *gin.Context) {})
	documents.POST("/:name/rename", func(c *gin.Context) {}).Describe("Rename a document")

	printing := NewDomainGroup("print", "/print")
	printing.POST("", func(c *gin.Context) {})
	printing.Group("jobs", "/jobs").GET("/:id", func(c *gin.Context) {})

	r.Register(documents).Register(printing)

	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/api/v1/documents", Description: "List documents"},
		{Method: http.MethodGet, Path: "/api/v1/documents/:name"},
		{Method: http.MethodPost, Path: "/api/v1/documents/:name/rename", Description: "Rename a document"},
		{Method: http.MethodPost, Path: "/api/v1/print"},
		{Method: http.MethodGet, Path: "/api/v1/print/jobs/:id"},
	}, r.Routes())
}

func TestDomainGroup_DescribeWithoutRoutes(t *testing.T) {
	g := NewDomainGroup("empty", "/empty").Describe("ignored")
	assert.Empty(t, g.describe("/api/v1"))
}

func TestRouterNoRoute(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithNoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "no route: "+c.Request.URL.Path)
	}))
	r.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/missing", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no route: /api/v1/missing", w.Body.String())
}
