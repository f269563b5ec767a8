package domain

import "time"

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// ScoreForLabel devuelve el score discreto {1,0,-1} asociado a la etiqueta.
func ScoreForLabel(label SentimentLabel) int {
	switch label {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

type Domain string

const (
	DomainEmotional Domain = "emotional"
	DomainCognitive Domain = "cognitive"
	DomainSocial    Domain = "social"
)

// Domains es el conjunto fijo y ordenado de ejes conductuales.
var Domains = []Domain{DomainEmotional, DomainCognitive, DomainSocial}

// MaxKeywords limita la cantidad de keywords por nota y por agregado.
const MaxKeywords = 10

type Sentiment struct {
	Label        SentimentLabel `json:"sentiment"`
	Score        int            `json:"score"`
	Polarity     float64        `json:"polarity"`
	Subjectivity float64        `json:"subjectivity"`
	Confidence   *float64       `json:"confidence,omitempty"`
	Tier         string         `json:"tier,omitempty"`
}

// NeutralSentiment es el valor usado por el análisis vacío.
func NeutralSentiment() Sentiment {
	return Sentiment{Label: SentimentNeutral}
}

type DomainCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

func (c DomainCounts) Total() int {
	return c.Positive + c.Negative + c.Neutral
}

type DomainScore struct {
	Score         float64      `json:"score"`
	Counts        DomainCounts `json:"counts"`
	TotalMentions int          `json:"total_mentions"`
}

// DomainTags siempre contiene las tres claves de Domains.
type DomainTags map[Domain]DomainScore

// NewDomainTags construye tags con los tres dominios en cero.
func NewDomainTags() DomainTags {
	tags := make(DomainTags, len(Domains))
	for _, d := range Domains {
		tags[d] = DomainScore{}
	}
	return tags
}

type AnalysisMetadata struct {
	TextLength    int    `json:"text_length"`
	WordCount     int    `json:"word_count"`
	SentimentTier string `json:"sentiment_tier,omitempty"`
	KeywordTier   string `json:"keyword_tier,omitempty"`
	DomainTier    string `json:"domain_tier,omitempty"`
}

// AnalysisResult es la salida del pipeline para una nota. Se persiste append-only.
type AnalysisResult struct {
	ID            string           `json:"id,omitempty"`
	NoteID        string           `json:"note_id,omitempty"`
	SubjectID     string           `json:"subject_id,omitempty"`
	NoteCreatedAt time.Time        `json:"note_created_at"`
	Text          string           `json:"text"`
	Sentiment     Sentiment        `json:"sentiment"`
	Keywords      []string         `json:"keywords"`
	DomainTags    DomainTags       `json:"tags"`
	CreatedAt     time.Time        `json:"created_at"`
	Metadata      AnalysisMetadata `json:"analysis_metadata"`
}

// EmptyAnalysis es el resultado fijo para texto vacío o inválido.
func EmptyAnalysis(now time.Time) AnalysisResult {
	return AnalysisResult{
		Text:       "",
		Sentiment:  NeutralSentiment(),
		Keywords:   []string{},
		DomainTags: NewDomainTags(),
		CreatedAt:  now,
	}
}
