package events

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buffer", Ordered, func() {
	Context("buffer", func() {
		It("add successfully", func() {
			buffer := newBuffer()

			// add the first message
			buffer.PushBack(&message{Topic: "t1"})
			Expect(buffer.Size()).To(Equal(1))
			Expect(buffer.head).NotTo(BeNil())
			Expect(buffer.tail).NotTo(BeNil())

			// second
			buffer.PushBack(&message{Topic: "t2"})
			Expect(buffer.Size()).To(Equal(2))

			Expect(buffer.head.Topic).To(Equal("t1"))
			Expect(buffer.tail.Topic).To(Equal("t2"))

			// third
			buffer.PushBack(&message{Topic: "t3"})
			Expect(buffer.Size()).To(Equal(3))

			Expect(buffer.head.Topic).To(Equal("t1"))
			Expect(buffer.tail.Topic).To(Equal("t3"))
		})

		It("pop", func() {
			buffer := newBuffer()

			buffer.PushBack(&message{Topic: "t1"})
			buffer.PushBack(&message{Topic: "t2"})
			buffer.PushBack(&message{Topic: "t3"})
			Expect(buffer.Size()).To(Equal(3))

			m := buffer.Pop()
			Expect(m).NotTo(BeNil())
			Expect(m.Topic).To(Equal("t1"))
			Expect(buffer.Size()).To(Equal(2))

			m = buffer.Pop()
			Expect(m).NotTo(BeNil())
			Expect(m.Topic).To(Equal("t2"))
			Expect(buffer.Size()).To(Equal(1))

			m = buffer.Pop()
			Expect(m).NotTo(BeNil())
			Expect(m.Topic).To(Equal("t3"))
			Expect(buffer.Size()).To(Equal(0))
			Expect(buffer.head).To(BeNil())
			Expect(buffer.tail).To(BeNil())

			m = buffer.Pop()
			Expect(m).To(BeNil())
		})

		It("requeues at the back", func() {
			buffer := newBuffer()

			buffer.PushBack(&message{Topic: "t1"})
			buffer.PushBack(&message{Topic: "t2"})

			m := buffer.Pop()
			Expect(m.Topic).To(Equal("t1"))
			buffer.PushBack(m)

			Expect(buffer.head.Topic).To(Equal("t2"))
			Expect(buffer.tail.Topic).To(Equal("t1"))
		})
	})
})
