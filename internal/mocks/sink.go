package mocks

import "github.com/stretchr/testify/mock"

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Set(value float64) {
	m.Called(value)
}
