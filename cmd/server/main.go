package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mark-risk-eval/internal/api"
	"mark-risk-eval/internal/imagesearch"
	"mark-risk-eval/internal/scoring"
)

func main() {
	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	dataDir := filepath.Join(baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	policy := scoring.DefaultPolicy()
	if v := strings.TrimSpace(os.Getenv("RISK_RED_THRESHOLD")); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			policy.RedThreshold = val
		}
	}
	if v := strings.TrimSpace(os.Getenv("RISK_YELLOW_THRESHOLD")); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			policy.YellowThreshold = val
		}
	}
	if v := strings.TrimSpace(os.Getenv("SIMILARITY_THRESHOLD")); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			policy.SimilarityThreshold = val
		}
	}
	if v := strings.TrimSpace(os.Getenv("IMAGE_HIT_LIMIT")); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			policy.ImageHitLimit = val
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_MATCHES")); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			policy.MaxMatches = val
		}
	}
	if err := policy.Validate(); err != nil {
		logrus.Fatalf("scoring policy: %v", err)
	}

	imageCfg := imagesearch.Config{
		APIKey:  os.Getenv("IMAGE_SEARCH_API_KEY"),
		BaseURL: os.Getenv("IMAGE_SEARCH_BASE_URL"),
	}
	if timeout := os.Getenv("IMAGE_SEARCH_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			imageCfg.Timeout = d
		}
	}
	if ttl := os.Getenv("IMAGE_SEARCH_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			imageCfg.CacheTTL = d
		}
	}
	if results := os.Getenv("IMAGE_SEARCH_MAX_RESULTS"); results != "" {
		if v, err := strconv.Atoi(results); err == nil {
			imageCfg.MaxResults = v
		}
	}

	cfg := api.Config{
		DBPath:          filepath.Join(dataDir, "mark-risk.db"),
		BrandsPath:      filepath.Join(baseDir, "internal", "scoring", "known_brands.json"),
		CharactersPath:  filepath.Join(baseDir, "internal", "scoring", "known_characters.json"),
		RegistryXMLPath: strings.TrimSpace(os.Getenv("REGISTRY_XML_PATH")),
		AllowedOrigins: []string{
			"http://localhost:1000",
			"http://127.0.0.1:1000",
		},
		Policy:      policy,
		ImageSearch: imageCfg,
	}

	if override := strings.TrimSpace(os.Getenv("MARK_RISK_DB_PATH")); override != "" {
		cfg.DBPath = override
	}
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		cfg.AllowedOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "2000"
	}

	logrus.Infof("starting mark-risk-eval backend on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
