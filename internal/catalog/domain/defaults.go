package domain

import "github.com/shopspring/decimal"

// TestPrice replaces every default price outside production so sandbox
// checkouts never move real money.
var TestPrice = decimal.NewFromInt(1)

// DefaultPackages returns the three canonical packages.
func DefaultPackages(testPrices bool) []Package {
	pkgs := []Package{
		{
			Slug:             "basic",
			Name:             "Paquete Básico",
			ShortDescription: "Reportes puntuales sobre tu operación y datos clave.",
			Description:      "Primer acercamiento para entender tu línea, capturar datos y detectar oportunidades inmediatas sin fricción.",
			Price:            decimal.NewFromInt(500),
			IsActive:         true,
			DisplayOrder:     1,
		},
		{
			Slug:             "medium",
			Name:             "Paquete Medium",
			ShortDescription: "Diagnóstico profundo y recomendaciones priorizadas.",
			Description:      "Analizamos variabilidad, cuellos de botella y escenarios financieros para reducir desperdicio y mejorar flujo.",
			Price:            decimal.NewFromInt(3000),
			IsActive:         true,
			DisplayOrder:     2,
		},
		{
			Slug:             "master",
			Name:             "Paquete Master",
			ShortDescription: "Implementación de una solución digital hecha a la medida.",
			Description:      "Incluye el diagnóstico Medium más el desarrollo de un producto web enfocado en un problema específico de tu planta.",
			Price:            decimal.NewFromInt(15000),
			IsActive:         true,
			DisplayOrder:     3,
		},
	}
	if testPrices {
		for i := range pkgs {
			pkgs[i].Price = TestPrice
		}
	}
	return pkgs
}
