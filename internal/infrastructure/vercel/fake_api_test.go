package vercel_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"envsync/internal/infrastructure/vercel"

	"github.com/gin-gonic/gin"
)

// fakeAPI is an in-memory stand-in for the Vercel project env endpoints
type fakeAPI struct {
	mu         sync.Mutex
	token      string
	project    string
	envs       []vercel.EnvVar
	customEnvs []vercel.CustomEnvironment
	// deleteErrors maps env ids to a forced error response
	deleteErrors map[string]int
	deleteMsgs   map[string]string
	upsertStatus int

	nextID   int
	requests []string
	teamIDs  []string
	upserts  []vercel.UpsertEnvRequest
	edits    map[string]vercel.EditEnvRequest
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &fakeAPI{
		token:        "tok_test",
		project:      "prj_1",
		deleteErrors: make(map[string]int),
		deleteMsgs:   make(map[string]string),
		edits:        make(map[string]vercel.EditEnvRequest),
	}

	r := gin.New()
	r.Use(api.record, api.auth)
	r.GET("/v9/projects/:project/env", api.listEnv)
	r.POST("/v10/projects/:project/env", api.upsertEnv)
	r.PATCH("/v9/projects/:project/env/:id", api.editEnv)
	r.DELETE("/v9/projects/:project/env/:id", api.deleteEnv)
	r.GET("/v9/projects/:project/custom-environments", api.listCustomEnvs)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) record(c *gin.Context) {
	a.mu.Lock()
	a.requests = append(a.requests, c.Request.Method+" "+c.Request.URL.Path)
	a.teamIDs = append(a.teamIDs, c.Query("teamId"))
	a.mu.Unlock()
	c.Next()
}

func (a *fakeAPI) auth(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer "+a.token {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{"code": "forbidden", "message": "Not authorized"},
		})
		return
	}
	if c.Param("project") != a.project {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "not_found", "message": "Project not found"},
		})
		return
	}
	c.Next()
}

func (a *fakeAPI) listEnv(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"envs": a.envs})
}

func (a *fakeAPI) upsertEnv(c *gin.Context) {
	if c.Query("upsert") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "upsert flag missing"}})
		return
	}
	var req vercel.UpsertEnvRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.upsertStatus != 0 {
		c.JSON(a.upsertStatus, gin.H{"error": gin.H{"message": "upsert rejected"}})
		return
	}
	a.upserts = append(a.upserts, req)

	for i, env := range a.envs {
		if env.Key == req.Key && sameStrings(env.Target, req.Target) && sameStrings(env.CustomEnvironmentIDs, req.CustomEnvironmentIDs) {
			a.envs[i].Value = req.Value
			a.envs[i].Type = req.Type
			c.JSON(http.StatusOK, gin.H{"created": a.envs[i]})
			return
		}
	}
	a.nextID++
	env := vercel.EnvVar{
		ID:                   fmt.Sprintf("env_new_%d", a.nextID),
		Key:                  req.Key,
		Value:                req.Value,
		Type:                 req.Type,
		Target:               req.Target,
		CustomEnvironmentIDs: req.CustomEnvironmentIDs,
	}
	a.envs = append(a.envs, env)
	c.JSON(http.StatusCreated, gin.H{"created": env})
}

func (a *fakeAPI) editEnv(c *gin.Context) {
	var req vercel.EditEnvRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
		return
	}
	if req.Target == nil || req.CustomEnvironmentIDs == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "target lists must be sent"}})
		return
	}

	id := c.Param("id")
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, env := range a.envs {
		if env.ID == id {
			a.edits[id] = req
			a.envs[i].Target = req.Target
			a.envs[i].CustomEnvironmentIDs = req.CustomEnvironmentIDs
			c.JSON(http.StatusOK, a.envs[i])
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "env not found"}})
}

// byID returns the stored entry with id
func (a *fakeAPI) byID(id string) (vercel.EnvVar, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, env := range a.envs {
		if env.ID == id {
			return env, true
		}
	}
	return vercel.EnvVar{}, false
}

func (a *fakeAPI) deleteEnv(c *gin.Context) {
	id := c.Param("id")
	a.mu.Lock()
	defer a.mu.Unlock()

	if status, ok := a.deleteErrors[id]; ok {
		c.JSON(status, gin.H{"error": gin.H{"code": "env_delete_failed", "message": a.deleteMsgs[id]}})
		return
	}
	for i, env := range a.envs {
		if env.ID == id {
			a.envs = append(a.envs[:i], a.envs[i+1:]...)
			c.JSON(http.StatusOK, env)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "env not found"}})
}

func (a *fakeAPI) listCustomEnvs(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"environments": a.customEnvs})
}

func (a *fakeAPI) keys() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string)
	for _, env := range a.envs {
		out[env.Key] = env.Value
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
