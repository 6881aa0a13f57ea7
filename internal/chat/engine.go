// Package chat - движок ответов ассистента: упорядоченный список правил,
// первое сработавшее правило дает ответ. Движок не хранит состояния и не ходит в сеть.
package chat

import (
	"regexp"
	"strings"

	"Portfolio/internal/config"
	"Portfolio/internal/models"
)

// Имена правил, в порядке приоритета. Используются в метриках и тестах.
const (
	RuleKnowledge    = "knowledge_base"
	RuleGreeting     = "greeting"
	RuleAbout        = "about"
	RuleSkills       = "skills"
	RuleProjects     = "projects"
	RuleExperience   = "experience"
	RuleHire         = "hire"
	RuleCall         = "call"
	RulePricing      = "pricing"
	RuleContact      = "contact"
	RuleAvailability = "availability"
	RuleStack        = "stack"
	RuleThanks       = "thanks"
	RuleGoodbye      = "goodbye"
	RuleDefault      = "default"
)

// Input - все, от чего зависит ответ.
type Input struct {
	Utterance   string
	Projects    []models.ProjectSummary
	Experiences []models.ExperienceSummary
	Knowledge   []models.KnowledgeEntry
}

// Reply - текст ответа и имя сработавшего правила.
type Reply struct {
	Text string
	Rule string
}

// Rule - пара (условие, ответчик). msg уже приведен к нижнему регистру и обрезан.
type Rule struct {
	Name  string
	Match func(msg string, in Input) bool
	Reply func(in Input) string
}

// Engine хранит скомпилированные правила для одного профиля владельца.
type Engine struct {
	profile config.Profile
	rules   []Rule
}

// NewEngine собирает правила в порядке приоритета.
func NewEngine(profile config.Profile) *Engine {
	e := &Engine{profile: profile}
	e.rules = e.buildRules()
	return e
}

// Rules возвращает имена правил в порядке проверки.
func (e *Engine) Rules() []string {
	names := make([]string, 0, len(e.rules)+2)
	names = append(names, RuleKnowledge)
	for _, r := range e.rules {
		names = append(names, r.Name)
	}
	return append(names, RuleDefault)
}

// Respond возвращает только текст ответа.
func (e *Engine) Respond(utterance string, projects []models.ProjectSummary, experiences []models.ExperienceSummary, kb []models.KnowledgeEntry) string {
	return e.Evaluate(Input{Utterance: utterance, Projects: projects, Experiences: experiences, Knowledge: kb}).Text
}

// Evaluate прогоняет сообщение через базу знаний и правила, первое совпадение побеждает.
func (e *Engine) Evaluate(in Input) Reply {
	msg := strings.ToLower(strings.TrimSpace(in.Utterance))

	if text, ok := MatchKnowledge(msg, in.Knowledge); ok {
		return Reply{Text: text, Rule: RuleKnowledge}
	}
	for _, r := range e.rules {
		if r.Match(msg, in) {
			return Reply{Text: r.Reply(in), Rule: r.Name}
		}
	}
	return Reply{Text: e.defaultReply(), Rule: RuleDefault}
}

// words компилирует шаблон вида \b(a|b|c)\b.
func words(alternatives ...string) *regexp.Regexp {
	quoted := make([]string, len(alternatives))
	for i, a := range alternatives {
		quoted[i] = regexp.QuoteMeta(a)
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}

// when - условие "есть совпадение с pattern и нет с каждым из exclude".
func when(pattern *regexp.Regexp, exclude ...*regexp.Regexp) func(string, Input) bool {
	return func(msg string, _ Input) bool {
		if !pattern.MatchString(msg) {
			return false
		}
		for _, ex := range exclude {
			if ex.MatchString(msg) {
				return false
			}
		}
		return true
	}
}

var (
	greetingPattern   = words("hi", "hello", "hey", "hola", "namaste", "good morning", "good afternoon", "good evening")
	aboutVerbPattern  = words("who", "about", "tell me", "introduce", "know", "background")
	skillsPattern     = words("skill", "technology", "tech", "stack", "expertise", "know", "tools", "programming", "languages", "framework")
	projectsPattern   = words("project", "portfolio", "work", "built", "created", "showcase", "examples")
	experiencePattern = words("experience", "job", "career", "professional", "worked", "company", "role", "position")
	hirePattern       = words("hire", "work together", "work with", "collaborate", "project for", "need a developer",
		"looking for", "developer", "build", "create", "want to make", "need help", "freelance", "contract")
	callPattern         = words("call", "schedule", "meeting", "discuss", "talk", "phone", "video call", "consultation", "book")
	pricingPattern      = words("price", "cost", "rate", "charge", "budget", "fee", "quote", "estimate", "how much")
	contactPattern      = words("contact", "email", "reach", "connect", "get in touch", "message", "how can i")
	availabilityPattern = words("available", "free", "busy", "time", "when", "freelance", "open")
	stackPattern        = words("mern", "react", "node", "mongodb", "express", "javascript", "frontend", "backend", "fullstack", "full stack", "api")
	thanksPattern       = words("thank", "thanks", "appreciate", "helpful", "great", "awesome", "nice")
	goodbyePattern      = words("bye", "goodbye", "see you", "later", "take care")

	collaborationPhrase = words("work together", "work with")
	hireWordPattern     = words("hire")
	contactExclude      = words("hire", "project", "work")
)

func (e *Engine) buildRules() []Rule {
	aboutSubject := []string{"you", "yourself", "him", "he"}
	if first := strings.ToLower(e.profile.FirstName()); first != "" {
		aboutSubject = append([]string{first}, aboutSubject...)
	}
	aboutSubjectPattern := words(aboutSubject...)

	return []Rule{
		{Name: RuleGreeting, Match: when(greetingPattern), Reply: e.greetingReply},
		{
			Name: RuleAbout,
			Match: func(msg string, _ Input) bool {
				return aboutVerbPattern.MatchString(msg) && aboutSubjectPattern.MatchString(msg)
			},
			Reply: e.aboutReply,
		},
		{Name: RuleSkills, Match: when(skillsPattern), Reply: e.skillsReply},
		{Name: RuleProjects, Match: when(projectsPattern, collaborationPhrase, hireWordPattern), Reply: e.projectsReply},
		{Name: RuleExperience, Match: when(experiencePattern, collaborationPhrase), Reply: e.experienceReply},
		{Name: RuleHire, Match: when(hirePattern), Reply: e.hireReply},
		{Name: RuleCall, Match: when(callPattern), Reply: e.callReply},
		{Name: RulePricing, Match: when(pricingPattern), Reply: e.pricingReply},
		{Name: RuleContact, Match: when(contactPattern, contactExclude), Reply: e.contactReply},
		{Name: RuleAvailability, Match: when(availabilityPattern), Reply: e.availabilityReply},
		{Name: RuleStack, Match: when(stackPattern), Reply: e.stackReply},
		{Name: RuleThanks, Match: when(thanksPattern), Reply: e.thanksReply},
		{Name: RuleGoodbye, Match: when(goodbyePattern), Reply: e.goodbyeReply},
	}
}
