package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jlonij/dac-web/internal/annotate"
	"github.com/jlonij/dac-web/internal/linker"
	"github.com/jlonij/dac-web/internal/model"
	"github.com/jlonij/dac-web/internal/navigate"
	"golang.org/x/sync/errgroup"
)

// Messages returned by the edit endpoint.
const (
	msgUsage          = "Invoke with ?action=[add|delete]&url=[url]"
	msgDuplicate      = "Article or entity already in data set"
	msgOtherDataset   = "Article already in other data set"
	msgNoEntities     = "No entities found for article"
	msgNotFound       = "Article or entity not found in dataset"
	msgSaveError      = "Error saving data"
	msgConflict       = "Data set was modified by someone else"
	msgUnknownDataset = "Data set not found"
	msgNERError       = "Error retrieving entities for article"
	msgSibling        = "Other data set could not be checked"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// DisplayResponse is everything an annotator needs to label one instance.
type DisplayResponse struct {
	Index      int               `json:"index"`
	LastIndex  int               `json:"last_index"`
	ID         int               `json:"instance_id"`
	URL        string            `json:"url"`
	NE         string            `json:"ne"`
	NEType     *string           `json:"ne_type"`
	Links      []string          `json:"links"`
	Text       string            `json:"ocr"`
	Candidates []model.Candidate `json:"candidates"`
	Version    string            `json:"version,omitempty"`
}

// EditResponse is the result of an add or delete.
type EditResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *Server) predict(c *gin.Context) {
	url := c.Query("url")
	ne := c.Query("ne")
	if url == "" || ne == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invoke with ?url=[url]&ne=[ne]"})
		return
	}

	result, err := s.services.Predict(c.Request.Context(), url, ne, true)
	if err != nil {
		requestLog(c, s.logger).Error("prediction failed", "url", url, "ne", ne, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Linker request failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) display(c *gin.Context) {
	name := c.Param("name")

	req, err := parseRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ds, version, err := s.load(name)
	if err != nil {
		s.abortLoad(c, name, err)
		return
	}

	index, err := navigate.ResolveIndex(ds, req).Index()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Identifier not found in dataset."})
		return
	}
	inst := ds.Instances[index]

	resp := DisplayResponse{
		Index:      index,
		LastIndex:  ds.Len() - 1,
		ID:         inst.ID,
		URL:        inst.URL,
		NE:         inst.NEString,
		NEType:     inst.NEType,
		Links:      inst.Links,
		Candidates: []model.Candidate{},
		Version:    string(version),
	}

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		text, err := s.services.ArticleText(ctx, inst.URL)
		if err != nil {
			return fmt.Errorf("failed to fetch article text: %w", err)
		}
		resp.Text = linker.Highlight(text, inst.NEString)
		return nil
	})
	if model.IsValidMention(inst.NEString) {
		g.Go(func() error {
			candidates, err := s.services.Candidates(ctx, inst.URL, inst.NEString)
			if err != nil {
				return fmt.Errorf("failed to fetch candidates: %w", err)
			}
			if candidates != nil {
				resp.Candidates = candidates
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		requestLog(c, s.logger).Error("display failed", "dataset", name, "id", inst.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// parseRequest reads the optional id and index query parameters.
func parseRequest(c *gin.Context) (navigate.Request, error) {
	var req navigate.Request
	if v := c.Query("id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid id %q", v)
		}
		req.ID = &id
	}
	if v := c.Query("index"); v != "" {
		index, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid index %q", v)
		}
		req.Index = &index
	}
	return req, nil
}

func (s *Server) saveLinks(c *gin.Context) {
	name := c.Param("name")

	index, err := strconv.Atoi(c.PostForm("index"))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid index.")
		return
	}
	links := c.PostFormArray("links")
	otherLink := c.PostForm("other_link")
	action := c.PostForm("action")
	version := c.PostForm("version")

	ds, err := s.store.Load(name)
	if err != nil {
		s.abortLoad(c, name, err)
		return
	}

	if err := annotate.SetLinks(ds, index, links, otherLink); err != nil {
		c.String(http.StatusNotFound, "Index not found in dataset.")
		return
	}

	// Resolve the redirect before writing so a bad action saves nothing.
	next, err := navigate.ComputeRedirectIndex(ds, index, action)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid action.")
		return
	}

	if err := s.persist(name, ds, version, s.linkMaxDelta); err != nil {
		log := requestLog(c, s.logger)
		if errors.Is(err, model.ErrConflict) {
			log.Warn("link save conflict", "dataset", name, "index", index)
			c.String(http.StatusConflict, "Data set was modified by someone else.")
			return
		}
		log.Error("link save failed", "dataset", name, "index", index, "error", err)
		c.String(http.StatusInternalServerError, "Error saving data.")
		return
	}

	target := "../" + name
	if i, err := next.Index(); err == nil {
		target += "?index=" + strconv.Itoa(i)
	}
	// c.Redirect would rewrite the target into an absolute path.
	c.Header("Location", target)
	c.Status(http.StatusSeeOther)
}

func (s *Server) edit(c *gin.Context) {
	name := c.Param("name")
	action := c.Query("action")
	url := c.Query("url")
	ne := c.Query("ne")
	link := c.Query("link")
	log := requestLog(c, s.logger)

	if (action != "add" && action != "delete") || url == "" {
		s.respond(c, statusError, msgUsage)
		return
	}

	ds, version, err := s.load(name)
	if err != nil {
		log.Warn("edit on unreadable dataset", "dataset", name, "error", err)
		s.respond(c, statusError, msgUnknownDataset)
		return
	}

	ctx := c.Request.Context()
	switch action {
	case "add":
		if ne != "" {
			_, err = s.mutator.AddEntity(ctx, name, ds, url, ne, link)
		} else {
			_, err = s.mutator.AddArticle(ctx, name, ds, url)
		}
	case "delete":
		_, err = s.mutator.RemoveMatching(ds, url, ne)
	}
	if err != nil {
		log.Info("edit rejected", "dataset", name, "action", action, "url", url, "error", err)
		s.respond(c, statusError, editMessage(err))
		return
	}

	if err := s.persist(name, ds, string(version), s.editMaxDelta); err != nil {
		if errors.Is(err, model.ErrConflict) {
			s.respond(c, statusError, msgConflict)
			return
		}
		log.Error("edit save failed", "dataset", name, "error", err)
		s.respond(c, statusError, msgSaveError)
		return
	}

	log.Info("dataset edited", "dataset", name, "action", action, "url", url, "ne", ne)
	s.respond(c, statusSuccess, "")
}

// editMessage maps a mutation error to its user-facing message.
func editMessage(err error) string {
	switch {
	case errors.Is(err, annotate.ErrSiblingUnavailable):
		return msgSibling
	case errors.Is(err, annotate.ErrInOtherDataset):
		return msgOtherDataset
	case errors.Is(err, model.ErrDuplicate):
		return msgDuplicate
	case errors.Is(err, model.ErrNoEntities):
		return msgNoEntities
	case errors.Is(err, model.ErrNotFound):
		return msgNotFound
	default:
		return msgNERError
	}
}

// respond writes the edit result as JSON, or as JSONP when the request
// names a callback.
func (s *Server) respond(c *gin.Context, status, message string) {
	c.JSONP(http.StatusOK, EditResponse{Status: status, Message: message})
}

func (s *Server) abortLoad(c *gin.Context, name string, err error) {
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Data set not found."})
		return
	}
	requestLog(c, s.logger).Error("failed to load dataset", "dataset", name, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading data."})
}
