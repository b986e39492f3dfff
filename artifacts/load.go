package artifacts

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"geoprecio/features"
	"geoprecio/models"
)

// Export file names inside the artifact directory.
const (
	GlobalFile  = "modelo_global.json"
	ClusterFile = "gwrf_clusters.json"
	DensityFile = "gwrf_densidad.json"
	MetaFile    = "meta_stack.json"
)

// ClusteringFeatures returns the density features KMeans was trained on.
func ClusteringFeatures() []string {
	return features.DensityNames()[:10]
}

type linearExport struct {
	Name         string             `json:"nombre"`
	Features     []string           `json:"caracteristicas"`
	Intercept    float64            `json:"intercepto"`
	Coefficients map[string]float64 `json:"coeficientes"`
	Metrics      map[string]float64 `json:"metricas"`
}

type clusterExport struct {
	Features   []string                `json:"caracteristicas_cluster"`
	Centroids  [][]float64             `json:"centroides"`
	Population []int                   `json:"poblacion"`
	Models     map[string]linearExport `json:"modelos"`
}

type metaExport struct {
	Inputs       []string           `json:"entradas"`
	Intercept    float64            `json:"intercepto"`
	Coefficients map[string]float64 `json:"coeficientes"`
}

// Load reads every artifact under dir. A missing or invalid file degrades
// the bundle and is logged, it never fails the load: the caller decides
// what to do with a partial or empty bundle.
func Load(dir string) *Bundle {
	b := &Bundle{}

	if m, err := loadLinear(filepath.Join(dir, GlobalFile), features.Schema()); err != nil {
		log.Printf("Warning: artifact %s unavailable: %v", GlobalFile, err)
	} else {
		b.Global = m
	}

	if m, err := loadLinear(filepath.Join(dir, DensityFile), features.DensityNames()); err != nil {
		log.Printf("Warning: artifact %s unavailable: %v", DensityFile, err)
	} else {
		b.Density = m
	}

	if m, err := loadClusters(filepath.Join(dir, ClusterFile)); err != nil {
		log.Printf("Warning: artifact %s unavailable: %v", ClusterFile, err)
	} else {
		b.Cluster = m
	}

	if m, err := loadMeta(filepath.Join(dir, MetaFile)); err != nil {
		log.Printf("Warning: artifact %s unavailable: %v", MetaFile, err)
	} else {
		b.Meta = m
	}

	log.Printf("Model artifacts loaded: state=%s", b.State())
	return b
}

func loadLinear(path string, wantFeatures []string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var exp linearExport
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("json invalido: %w", err)
	}
	return buildLinear(exp, wantFeatures)
}

func buildLinear(exp linearExport, wantFeatures []string) (*LinearModel, error) {
	if err := sameFeatures(exp.Features, wantFeatures); err != nil {
		return nil, fmt.Errorf("modelo %s: %w", exp.Name, err)
	}
	coefs := make([]float64, len(exp.Features))
	for i, f := range exp.Features {
		c, ok := exp.Coefficients[f]
		if !ok {
			return nil, fmt.Errorf("modelo %s: coeficiente faltante para %s", exp.Name, f)
		}
		coefs[i] = c
	}
	return &LinearModel{
		Name:         exp.Name,
		Features:     exp.Features,
		Intercept:    exp.Intercept,
		Coefficients: coefs,
		Metrics:      exp.Metrics,
	}, nil
}

func loadClusters(path string) (*ClusterModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var exp clusterExport
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("json invalido: %w", err)
	}

	if err := sameFeatures(exp.Features, ClusteringFeatures()); err != nil {
		return nil, err
	}
	if len(exp.Centroids) == 0 {
		return nil, fmt.Errorf("sin centroides")
	}
	for i, c := range exp.Centroids {
		if len(c) != len(exp.Features) {
			return nil, fmt.Errorf("centroide %d: %d columnas, esperaba %d", i, len(c), len(exp.Features))
		}
	}
	if len(exp.Population) != len(exp.Centroids) {
		return nil, fmt.Errorf("poblacion: %d entradas para %d clusters", len(exp.Population), len(exp.Centroids))
	}

	cm := &ClusterModel{
		Features:   exp.Features,
		Centroids:  exp.Centroids,
		Population: exp.Population,
		Models:     make(map[int]*LinearModel, len(exp.Models)),
	}
	ids := make([]string, 0, len(exp.Models))
	for id := range exp.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n, err := strconv.Atoi(id)
		if err != nil || n < 0 || n >= len(exp.Centroids) {
			return nil, fmt.Errorf("id de cluster invalido: %q", id)
		}
		m, err := buildLinear(exp.Models[id], features.Schema())
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", id, err)
		}
		cm.Models[n] = m
	}
	return cm, nil
}

func loadMeta(path string) (*MetaModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var exp metaExport
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("json invalido: %w", err)
	}

	want := []string{models.MethodRFGlobal, models.MethodGWRFCluster, models.MethodGWRFDensity}
	if err := sameFeatures(exp.Inputs, want); err != nil {
		return nil, err
	}
	coefs := make([]float64, len(exp.Inputs))
	for i, in := range exp.Inputs {
		c, ok := exp.Coefficients[in]
		if !ok {
			return nil, fmt.Errorf("coeficiente faltante para %s", in)
		}
		coefs[i] = c
	}
	return &MetaModel{Inputs: exp.Inputs, Intercept: exp.Intercept, Coefficients: coefs}, nil
}

// sameFeatures enforces exact name and order equality with the canonical
// schema slice.
func sameFeatures(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("esquema: %d features, esperaba %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			return fmt.Errorf("esquema: posicion %d es %s, esperaba %s", i, got[i], want[i])
		}
	}
	return nil
}
