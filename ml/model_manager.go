package ml

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ModelFileName is the on-disk name of the active model.
const ModelFileName = "dropout_model.json"

// ModelStatus describes the currently served model.
type ModelStatus struct {
	Trained    bool       `json:"trained"`
	TrainedAt  time.Time  `json:"trained_at,omitempty"`
	Params     GBDTParams `json:"params,omitempty"`
	Metrics    Metrics    `json:"metrics,omitempty"`
	DataPoints int        `json:"data_points,omitempty"`
	ModelPath  string     `json:"model_path,omitempty"`
}

// ModelManager owns the live model and swaps it atomically on retrain
// or when the model file changes on disk. Local explanations are cached
// because path decomposition walks every tree.
type ModelManager struct {
	modelDir   string
	thresholds RiskThresholds

	mu        sync.RWMutex
	model     *GradientBoosting
	explainer *Explainer
	metrics   Metrics
	points    int

	explainCache *lru.Cache[string, []FeatureImpact]

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewModelManager creates a manager and tries to load an existing model
// from modelDir.
func NewModelManager(modelDir string, thresholds RiskThresholds) (*ModelManager, error) {
	cache, err := lru.New[string, []FeatureImpact](1024)
	if err != nil {
		return nil, err
	}

	mm := &ModelManager{
		modelDir:     modelDir,
		thresholds:   thresholds,
		explainCache: cache,
		done:         make(chan struct{}),
	}

	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return nil, err
	}

	if err := mm.loadFromDisk(); err != nil {
		log.Printf("No existing model loaded: %v", err)
	}

	return mm, nil
}

// ModelPath returns the active model file path.
func (mm *ModelManager) ModelPath() string {
	return filepath.Join(mm.modelDir, ModelFileName)
}

// loadFromDisk loads the persisted model if present.
func (mm *ModelManager) loadFromDisk() error {
	path := mm.ModelPath()
	if _, err := os.Stat(path); err != nil {
		return err
	}

	model := NewGradientBoosting(DefaultGBDTParams())
	if err := model.Load(path); err != nil {
		return err
	}

	return mm.swap(model, model.Metrics, model.DataPoints)
}

// SetModel installs a freshly trained model and persists it.
func (mm *ModelManager) SetModel(result *TrainResult) error {
	if result == nil || result.Model == nil {
		return ErrModelNotTrained
	}

	if err := result.Model.Save(mm.ModelPath()); err != nil {
		return fmt.Errorf("persist model: %w", err)
	}

	return mm.swap(result.Model, result.Metrics, result.DataPoints)
}

func (mm *ModelManager) swap(model *GradientBoosting, metrics Metrics, points int) error {
	explainer, err := NewExplainer(model)
	if err != nil {
		return err
	}

	mm.mu.Lock()
	mm.model = model
	mm.explainer = explainer
	mm.metrics = metrics
	mm.points = points
	mm.mu.Unlock()

	mm.explainCache.Purge()
	return nil
}

// Model returns the live model, or ErrModelNotTrained.
func (mm *ModelManager) Model() (*GradientBoosting, error) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	if mm.model == nil {
		return nil, ErrModelNotTrained
	}
	return mm.model, nil
}

// Thresholds returns the configured risk tier cut points.
func (mm *ModelManager) Thresholds() RiskThresholds {
	return mm.thresholds
}

// Status reports the current model state.
func (mm *ModelManager) Status() ModelStatus {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	status := ModelStatus{ModelPath: mm.ModelPath()}
	if mm.model != nil {
		status.Trained = true
		status.TrainedAt = mm.model.TrainedAt
		status.Params = mm.model.Params
		status.Metrics = mm.metrics
		status.DataPoints = mm.points
	}
	return status
}

// Predict scores one feature vector and maps it to a risk tier.
func (mm *ModelManager) Predict(features []float64) (float64, RiskTier, error) {
	model, err := mm.Model()
	if err != nil {
		return 0, "", err
	}
	probability, err := model.PredictProba(features)
	if err != nil {
		return 0, "", err
	}
	return probability, mm.thresholds.Tier(probability), nil
}

// ExplainLocal returns the top feature impacts for one vector, served
// from the LRU cache when the same vector was explained before.
func (mm *ModelManager) ExplainLocal(cacheKey string, features []float64, topK int) ([]FeatureImpact, error) {
	if cacheKey != "" {
		if impacts, ok := mm.explainCache.Get(cacheKey); ok {
			return impacts, nil
		}
	}

	mm.mu.RLock()
	explainer := mm.explainer
	mm.mu.RUnlock()
	if explainer == nil {
		return nil, ErrModelNotTrained
	}

	impacts := explainer.ExplainLocal(features, topK)
	if cacheKey != "" {
		mm.explainCache.Add(cacheKey, impacts)
	}
	return impacts, nil
}

// ExplainGlobal ranks features over a full matrix.
func (mm *ModelManager) ExplainGlobal(matrix [][]float64) ([]GlobalImportance, error) {
	mm.mu.RLock()
	explainer := mm.explainer
	mm.mu.RUnlock()
	if explainer == nil {
		return nil, ErrModelNotTrained
	}
	return explainer.ExplainGlobal(matrix), nil
}

// WatchModelDir reloads the model when its file is rewritten on disk.
// Lets an out-of-band trainer (the CLI) update a running server.
func (mm *ModelManager) WatchModelDir() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(mm.modelDir); err != nil {
		watcher.Close()
		return err
	}
	mm.watcher = watcher

	go func() {
		// Debounce rapid write bursts from the atomic rename.
		var reloadTimer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != ModelFileName {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if reloadTimer != nil {
					reloadTimer.Stop()
				}
				reloadTimer = time.AfterFunc(500*time.Millisecond, func() {
					if err := mm.loadFromDisk(); err != nil {
						log.Printf("Model reload failed: %v", err)
					} else {
						log.Printf("Model reloaded from %s", mm.ModelPath())
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if !strings.Contains(err.Error(), "overflow") {
					log.Printf("Model watcher error: %v", err)
				}
			case <-mm.done:
				return
			}
		}
	}()

	return nil
}

// Close stops the watcher.
func (mm *ModelManager) Close() error {
	close(mm.done)
	if mm.watcher != nil {
		return mm.watcher.Close()
	}
	return nil
}
