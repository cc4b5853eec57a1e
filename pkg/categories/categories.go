// Package categories maps free-text item and merchant descriptions to
// personal-finance spending categories through keyword matching. The
// keyword table is configuration: callers can supply their own Table
// or use the built-in Default.
package categories

import "strings"

// Entry pairs a spending category with the keywords that select it.
type Entry struct {
	Category string
	Keywords []string
}

// Table is ordered: the first category whose keyword appears in the
// text wins.
type Table []Entry

// Suggest returns the spending category for a description. ok is
// false when no keyword matches.
func (t Table) Suggest(description string) (string, bool) {
	lower := strings.ToLower(description)
	for _, e := range t {
		for _, keyword := range e.Keywords {
			if strings.Contains(lower, keyword) {
				return e.Category, true
			}
		}
	}
	return "", false
}

// Suggest matches against the Default table.
func Suggest(description string) (string, bool) {
	return Default.Suggest(description)
}

// Default carries merchant and chain names plus common product words,
// since the matcher runs against both line-item descriptions and
// merchant names.
var Default = Table{
	{
		Category: "Alimentação",
		Keywords: []string{
			"supermercado", "mercado", "padaria", "restaurante", "lanchonete",
			"açougue", "acougue", "hortifruti", "feira", "delivery", "ifood",
			"arroz", "feijao", "feijão", "carne", "frango", "leite", "pao", "pão",
			"queijo", "ovo", "cafe", "café", "acucar", "açúcar", "oleo", "óleo",
			"macarrao", "macarrão", "biscoito", "refrigerante", "suco", "cerveja",
			"agua", "água", "fruta", "banana", "maca", "maçã", "tomate", "batata",
			"cebola", "alface", "iogurte", "margarina", "farinha", "sal",
		},
	},
	{
		Category: "Transporte",
		Keywords: []string{
			"posto", "gasolina", "etanol", "alcool", "álcool", "diesel",
			"combustivel", "combustível", "uber", "pedagio", "pedágio",
			"estacionamento", "passagem", "oficina", "ipva",
		},
	},
	{
		Category: "Saúde",
		Keywords: []string{
			"farmacia", "farmácia", "drogaria", "hospital", "clinica", "clínica",
			"laboratorio", "laboratório", "dipirona", "paracetamol", "ibuprofeno",
			"remedio", "remédio", "vitamina", "curativo",
		},
	},
	{
		Category: "Vestuário",
		Keywords: []string{
			"roupa", "calcado", "calçado", "camisa", "camiseta", "calca", "calça",
			"bermuda", "vestido", "sapato", "tenis", "tênis", "meia", "cueca",
			"calcinha", "bijuteria", "acessorio", "acessório",
		},
	},
	{
		Category: "Lazer",
		Keywords: []string{
			"cinema", "teatro", "show", "ingresso", "streaming", "brinquedo",
			"jogo", "revista",
		},
	},
	{
		Category: "Educação",
		Keywords: []string{
			"livraria", "livro", "curso", "escola", "faculdade", "caderno",
			"caneta", "lapis", "lápis", "borracha", "apostila", "mochila",
		},
	},
	{
		Category: "Serviços",
		Keywords: []string{
			"internet", "telefone", "celular", "condominio", "condomínio",
			"seguro", "corte", "lavagem", "conserto", "manutencao", "manutenção",
			"instalacao", "instalação",
		},
	},
}
