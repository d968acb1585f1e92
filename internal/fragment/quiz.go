package fragment

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/aymerick/raymond"
)

// quizControlsTemplate renders the synthesized answer controls for one
// quiz block. Answer bodies are authored markup, hence triple-stash.
const quizControlsTemplate = `<div class="quiz-answers">` +
	`{{#each answers}}<button class="quiz-answer" data-answer="{{idx}}">{{{body}}}</button>{{/each}}` +
	`</div>`

var quizTpl = raymond.MustParse(quizControlsTemplate)

// quizAnswer pairs an answer's markup with its correctness so the flag
// travels with the content through the shuffle.
type quizAnswer struct {
	correct bool
	body    string
}

// Quiz is the interactive state of one quiz block. The first-authored
// answer is correct regardless of its shuffled position. Selecting the
// correct answer locks the block and clears prior incorrect markings;
// selecting any other answer marks only that choice incorrect.
type Quiz struct {
	block    *xmlquery.Node
	controls []*xmlquery.Node
	correct  map[*xmlquery.Node]bool
	locked   bool
}

// Locked reports whether the block has been answered correctly.
func (q *Quiz) Locked() bool {
	return q.locked
}

// Controls returns the answer controls in presentation order.
func (q *Quiz) Controls() []*xmlquery.Node {
	return q.controls
}

// CorrectControl returns the control wired as the correct answer.
func (q *Quiz) CorrectControl() *xmlquery.Node {
	for _, c := range q.controls {
		if q.correct[c] {
			return c
		}
	}
	return nil
}

// Select records an answer choice.
func (q *Quiz) Select(n *xmlquery.Node) {
	if q.locked {
		return
	}
	if q.correct[n] {
		q.locked = true
		for _, c := range q.controls {
			removeClass(c, "incorrect")
			setAttr(c, "disabled", "disabled")
		}
		addClass(n, "correct")
		return
	}
	addClass(n, "incorrect")
}

// wireQuiz replaces a quiz block's authored answer list with shuffled
// controls and returns the quiz state.
func (p *Processor) wireQuiz(block *xmlquery.Node) (*Quiz, error) {
	list := block.SelectElement("ol")
	if list == nil {
		return nil, fmt.Errorf("quiz block has no answer list")
	}

	var answers []quizAnswer
	for _, li := range childNodes(list) {
		if !isElement(li, "li") {
			continue
		}
		answers = append(answers, quizAnswer{
			correct: len(answers) == 0,
			body:    innerXML(li),
		})
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("quiz block has no answers")
	}

	// Package-level Shuffle is internally locked, keeping Split safe for
	// concurrent use on one processor.
	rand.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})

	data := make([]map[string]interface{}, len(answers))
	for i, a := range answers {
		data[i] = map[string]interface{}{"idx": i, "body": a.body}
	}
	rendered, err := quizTpl.Exec(map[string]interface{}{"answers": data})
	if err != nil {
		return nil, fmt.Errorf("rendering quiz controls: %w", err)
	}

	doc, err := xmlquery.Parse(strings.NewReader(rendered))
	if err != nil {
		return nil, fmt.Errorf("parsing quiz controls: %w", err)
	}
	controlsRoot := doc.SelectElement("div")
	if controlsRoot == nil {
		return nil, fmt.Errorf("quiz controls rendered without a root")
	}
	detach(controlsRoot)
	replaceNode(list, controlsRoot)

	quiz := &Quiz{
		block:   block,
		correct: make(map[*xmlquery.Node]bool),
	}
	for _, button := range childNodes(controlsRoot) {
		if !isElement(button, "button") {
			continue
		}
		idx, err := strconv.Atoi(attrValue(button, "data-answer"))
		if err != nil || idx < 0 || idx >= len(answers) {
			continue
		}
		quiz.controls = append(quiz.controls, button)
		quiz.correct[button] = answers[idx].correct
	}
	return quiz, nil
}
