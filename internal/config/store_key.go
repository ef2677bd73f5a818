package config

import (
	"fmt"
)

type StoreKeyStruct struct{}

func NewStoreKeyStruct() *StoreKeyStruct {
	return &StoreKeyStruct{}
}

// SubjectsDocument returns the store key holding the subjects list.
func (r *StoreKeyStruct) SubjectsDocument() string {
	return "subjects"
}

// WorksDocument returns the store key holding the exam works list.
func (r *StoreKeyStruct) WorksDocument() string {
	return "examWorks"
}

// CurrentExamKey returns the attempt storage key for one student session.
func (r *StoreKeyStruct) CurrentExamKey(sessionID string) string {
	return fmt.Sprintf("session:%s:current_exam", sessionID)
}

// DocumentChannel returns the Pub/Sub channel name for a document's change feed.
func (r *StoreKeyStruct) DocumentChannel(document string) string {
	return fmt.Sprintf("document:%s:changed", document)
}

var StoreKey = NewStoreKeyStruct()
